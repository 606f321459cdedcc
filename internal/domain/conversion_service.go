package domain

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"

	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/error_notificator"
	"github.com/Vovarama1992/voice_posts/internal/ports"
	"github.com/Vovarama1992/voice_posts/internal/speech"
)

type ConversionOptions struct {
	StagingDir     string
	DefaultCodec   string
	ConvertTimeout time.Duration
	URLExpiry      time.Duration // 0 = максимум, который подпишет S3
}

type conversionService struct {
	storage   ports.S3Client
	converter ports.Converter
	prober    ports.Prober
	opts      ConversionOptions
	notifier  error_notificator.Notificator
	log       *logger.ZapLogger
}

func NewConversionService(
	storage ports.S3Client,
	converter ports.Converter,
	prober ports.Prober,
	opts ConversionOptions,
	n error_notificator.Notificator,
	log *logger.ZapLogger,
) ports.ConversionService {
	if opts.DefaultCodec == "" {
		opts.DefaultCodec = "mp3"
	}
	return &conversionService{
		storage:   storage,
		converter: converter,
		prober:    prober,
		opts:      opts,
		notifier:  n,
		log:       log,
	}
}

// ConvertedKey: in/voice.amr + mp3 → in/voice_converted.mp3
func ConvertedKey(sourceKey, codec string) string {
	dir, file := path.Split(sourceKey)
	base := strings.TrimSuffix(file, path.Ext(file))
	return dir + base + "_converted" + speech.Ext(codec)
}

func (s *conversionService) ConvertAudio(ctx context.Context, sourceFile, codec string) (*ports.ConversionResult, error) {
	key := strings.TrimPrefix(strings.TrimSpace(sourceFile), "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return nil, apperr.Invalid("sourceFile", "is required")
	}
	if codec == "" {
		codec = s.opts.DefaultCodec
	}
	codec = strings.ToLower(codec)
	if !speech.SupportedTarget(codec) {
		return nil, apperr.Invalid("targetCodec", fmt.Sprintf("unsupported codec %q", codec))
	}

	res, err := s.convert(ctx, key, codec)
	if err != nil {
		if !apperr.IsClient(err) {
			_ = s.notifier.Notify(ctx, "convertAudio", err, "sourceFile: "+key)
		}
		return nil, err
	}
	return res, nil
}

func (s *conversionService) convert(ctx context.Context, key, codec string) (*ports.ConversionResult, error) {
	src := &ports.AudioResource{
		Source:    key,
		LocalPath: filepath.Join(s.opts.StagingDir, uuid.NewString()+strings.ToLower(path.Ext(key))),
		Codec:     strings.TrimPrefix(strings.ToLower(path.Ext(key)), "."),
	}
	defer s.cleanup(src)

	if _, err := s.storage.Download(ctx, key, src.LocalPath); err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}

	convCtx, cancel := withTimeout(ctx, s.opts.ConvertTimeout)
	converted, err := s.converter.Convert(convCtx, src.LocalPath, codec)
	cancel()
	if err != nil {
		return nil, err
	}
	defer s.cleanup(&ports.AudioResource{LocalPath: converted})

	if err := s.verify(ctx, converted, codec); err != nil {
		return nil, err
	}
	duration := s.duration(ctx, converted)

	target := ConvertedKey(key, codec)
	if err := s.storage.UploadFile(ctx, target, converted, speech.ContentType(codec)); err != nil {
		return nil, fmt.Errorf("upload %s: %w", target, err)
	}

	url, err := s.storage.SignedURL(ctx, target, s.opts.URLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", target, err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("[convert] %s -> %s (%.1fs)", key, target, duration),
		Service: "convert",
	})
	return &ports.ConversionResult{File: target, URL: url}, nil
}

// verify: результат должен пробиться ffprobe как целевой кодек
func (s *conversionService) verify(ctx context.Context, path, codec string) error {
	if s.prober == nil {
		return nil
	}
	got, err := s.prober.Codec(ctx, path)
	if err != nil {
		return &apperr.ConversionError{Src: path, Codec: codec, Err: err}
	}
	if got != speech.ProbeName(codec) {
		return &apperr.ConversionError{Src: path, Codec: codec, Err: fmt.Errorf("output probes as %q", got)}
	}
	return nil
}

// duration: только для лога, ошибка ffprobe конвертацию не валит
func (s *conversionService) duration(ctx context.Context, path string) float64 {
	if s.prober == nil {
		return 0
	}
	d, err := s.prober.AudioDuration(ctx, path)
	if err != nil {
		s.log.Log(logger.LogEntry{Level: "warn", Message: "[convert] duration probe failed", Error: err, Service: "convert"})
		return 0
	}
	return d
}

func (s *conversionService) cleanup(res *ports.AudioResource) {
	if err := res.Cleanup(); err != nil {
		s.log.Log(logger.LogEntry{Level: "warn", Message: "staging cleanup failed", Error: err, Service: "convert"})
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
