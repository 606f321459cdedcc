package ports

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"os"
)

// AudioResource: аудио, пришедшее в запросе. LocalPath заполняется один раз
// после скачивания; Cleanup удаляет staging-файл.
type AudioResource struct {
	Source    string // URL или путь/ключ
	LocalPath string
	Codec     string // расширение без точки: mp3, ogg, m4a ...
}

func (a *AudioResource) Cleanup() error {
	if a == nil || a.LocalPath == "" {
		return nil
	}
	if err := os.Remove(a.LocalPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*AudioResource, error)
}

type Converter interface {
	Convert(ctx context.Context, srcPath, codec string) (string, error)
}

type Prober interface {
	// Codec: имя кодека первой аудиодорожки по ffprobe
	Codec(ctx context.Context, path string) (string, error)
	// AudioDuration: длительность в секундах
	AudioDuration(ctx context.Context, path string) (float64, error)
}

// ConversionResult: ответ convertAudio, ключ нового объекта и подписанная ссылка
type ConversionResult struct {
	File string `json:"file"`
	URL  string `json:"url"`
}

type ConversionService interface {
	// ConvertAudio: объект sourceFile → codec (пусто = кодек по умолчанию) → новый объект
	ConvertAudio(ctx context.Context, sourceFile, codec string) (*ConversionResult, error)
}

// ExtFromContentType: расширение по Content-Type аудио, "" если тип неизвестен
func ExtFromContentType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	switch mt {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg", "audio/opus":
		return ".ogg"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mp4", "audio/x-m4a", "audio/m4a":
		return ".m4a"
	case "audio/webm":
		return ".webm"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/aac":
		return ".aac"
	case "audio/amr":
		return ".amr"
	}
	return ""
}
