package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string         `mapstructure:"port"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	S3       S3Config       `mapstructure:"s3"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"` // пусто = api.openai.com
	Timeout time.Duration `mapstructure:"timeout"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Secure    bool   `mapstructure:"secure"`
}

type AudioConfig struct {
	StagingDir     string        `mapstructure:"staging_dir"`
	FFmpegPath     string        `mapstructure:"ffmpeg_path"`
	FFprobePath    string        `mapstructure:"ffprobe_path"`
	TargetCodec    string        `mapstructure:"target_codec"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	ConvertTimeout time.Duration `mapstructure:"convert_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	AdminChatID int64  `mapstructure:"admin_chat_id"`
}

type HTTPConfig struct {
	RateLimit int `mapstructure:"rate_limit"` // запросов в минуту с одного IP
}

// Load читает .env (если есть), затем переменные окружения поверх дефолтов.
// Ключи: PORT, DATABASE_URL, OPENAI_API_KEY, S3_BUCKET, AUDIO_TARGET_CODEC и т.д.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("database.url", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.timeout", 120*time.Second)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.secure", true)
	v.SetDefault("audio.staging_dir", os.TempDir())
	v.SetDefault("audio.ffmpeg_path", "ffmpeg")
	v.SetDefault("audio.ffprobe_path", "ffprobe")
	v.SetDefault("audio.target_codec", "mp3")
	v.SetDefault("audio.fetch_timeout", 60*time.Second)
	v.SetDefault("audio.convert_timeout", 120*time.Second)
	v.SetDefault("audio.max_upload_bytes", int64(25<<20))
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", int64(0))
	v.SetDefault("http.rate_limit", 60)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// секреты можно задавать ссылкой: "${OPENAI_KEY_PROD}"
	cfg.OpenAI.APIKey = resolveEnvRef(cfg.OpenAI.APIKey)
	cfg.S3.SecretKey = resolveEnvRef(cfg.S3.SecretKey)
	cfg.Telegram.Token = resolveEnvRef(cfg.Telegram.Token)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	switch c.Audio.TargetCodec {
	case "mp3", "aac", "opus", "wav", "flac":
	default:
		return fmt.Errorf("unsupported AUDIO_TARGET_CODEC %q", c.Audio.TargetCodec)
	}
	return nil
}

func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		if envVal := os.Getenv(val[2 : len(val)-1]); envVal != "" {
			return envVal
		}
	}
	return val
}
