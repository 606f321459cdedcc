package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_posts/internal/ai"
	"github.com/Vovarama1992/voice_posts/internal/config"
	"github.com/Vovarama1992/voice_posts/internal/delivery"
	"github.com/Vovarama1992/voice_posts/internal/domain"
	"github.com/Vovarama1992/voice_posts/internal/error_notificator"
	"github.com/Vovarama1992/voice_posts/internal/infra"
	"github.com/Vovarama1992/voice_posts/internal/speech"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	service         = "voice_posts"
	shutdownTimeout = 15 * time.Second
)

func main() {

	// =========================================================================
	// CONFIG / LOGGER / DB
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}
	if err := infra.EnsureSchema(pingCtx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	if err := os.MkdirAll(cfg.Audio.StagingDir, 0o700); err != nil {
		log.Fatalf("staging dir: %v", err)
	}

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	var errInfra error_notificator.Notificator = error_notificator.NopInfra{}
	if cfg.Telegram.Token != "" {
		tg, err := error_notificator.NewTelegramInfra(cfg.Telegram.Token, cfg.Telegram.AdminChatID)
		if err != nil {
			log.Fatalf("failed to init telegram notifier: %v", err)
		}
		errInfra = tg
	}
	notifier := error_notificator.NewService(errInfra, zl)

	s3Client, err := infra.NewS3Client(pingCtx, cfg.S3)
	if err != nil {
		log.Fatalf("failed to init s3: %v", err)
	}

	openaiClient := ai.NewProviderClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, &http.Client{Timeout: cfg.OpenAI.Timeout})
	fetcher := infra.NewFetcher(cfg.Audio.StagingDir, &http.Client{Timeout: cfg.Audio.FetchTimeout}, zl)
	converter := speech.NewFFmpegConverter(cfg.Audio.FFmpegPath, cfg.Audio.StagingDir, zl)
	prober := speech.NewProber(cfg.Audio.FFprobePath)
	postRepo := infra.NewPostRepo(db)

	// =========================================================================
	// SERVICES
	// =========================================================================

	aiService := ai.NewAiService(ai.NewOpenAIClient(openaiClient), cfg.OpenAI.Timeout, notifier, zl)

	speechService := speech.NewService(
		fetcher,
		converter,
		speech.NewWhisperClient(openaiClient),
		speech.Options{
			StagingDir:     cfg.Audio.StagingDir,
			TargetCodec:    cfg.Audio.TargetCodec,
			FetchTimeout:   cfg.Audio.FetchTimeout,
			ConvertTimeout: cfg.Audio.ConvertTimeout,
		},
		notifier,
		zl,
	)

	conversionService := domain.NewConversionService(
		s3Client,
		converter,
		prober,
		domain.ConversionOptions{
			StagingDir:     cfg.Audio.StagingDir,
			DefaultCodec:   cfg.Audio.TargetCodec,
			ConvertTimeout: cfg.Audio.ConvertTimeout,
		},
		notifier,
		zl,
	)

	postService := domain.NewPostService(postRepo, notifier)
	commentCounter := domain.NewCommentCounter(postRepo, notifier, zl)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := delivery.NewRouter(cfg.HTTP.RateLimit)

	delivery.RegisterRoutes(
		r,
		delivery.NewAIHandler(aiService, zl),
		delivery.NewSpeechHandler(speechService, cfg.Audio.MaxUploadBytes, zl),
		delivery.NewCallableHandler(postService, conversionService, zl),
		delivery.NewPostHandler(postService, zl),
	)

	// =========================================================================
	// START SERVER
	// =========================================================================

	listener := infra.NewCommentListener(cfg.Database.URL, commentCounter, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatalf("listen %s: %v", srv.Addr, err)
	}

	if err := serve(ctx, srv, ln, listener, shutdownTimeout, zl); err != nil {
		log.Fatalf("server error: %v", err)
	}

	zl.Log(logger.LogEntry{Level: "info", Message: "server stopped", Service: service})
}
