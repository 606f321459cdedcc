package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/error_notificator"
	"github.com/Vovarama1992/voice_posts/internal/ports"
	"github.com/google/uuid"
)

// форматы, которые whisper принимает как есть
var accepted = map[string]bool{
	"flac": true, "m4a": true, "mp3": true, "mp4": true, "mpeg": true,
	"mpga": true, "oga": true, "ogg": true, "wav": true, "webm": true,
}

func Accepted(codec string) bool {
	return accepted[strings.ToLower(codec)]
}

type Options struct {
	StagingDir     string
	TargetCodec    string
	FetchTimeout   time.Duration
	ConvertTimeout time.Duration
}

// Service: fetch → convert (если формат не принимается) → whisper.
// Все staging-файлы удаляются до выхода, в том числе при ошибке.
type Service struct {
	fetcher   ports.Fetcher
	converter ports.Converter
	stt       Transcriber
	opts      Options
	notifier  error_notificator.Notificator
	log       *logger.ZapLogger
}

func NewService(
	fetcher ports.Fetcher,
	converter ports.Converter,
	stt Transcriber,
	opts Options,
	notifier error_notificator.Notificator,
	log *logger.ZapLogger,
) *Service {
	if opts.TargetCodec == "" {
		opts.TargetCodec = "mp3"
	}
	if opts.StagingDir == "" {
		opts.StagingDir = os.TempDir()
	}
	return &Service{
		fetcher:   fetcher,
		converter: converter,
		stt:       stt,
		opts:      opts,
		notifier:  notifier,
		log:       log,
	}
}

func (s *Service) TranscribeURL(ctx context.Context, rawURL string) (*TranscriptionResult, error) {
	fetchCtx, cancel := withTimeout(ctx, s.opts.FetchTimeout)
	res, err := s.fetcher.Fetch(fetchCtx, rawURL)
	cancel()
	if err != nil {
		return nil, s.fail(ctx, "fetch", err, rawURL)
	}
	defer s.cleanup(res)

	return s.transcribeResource(ctx, res)
}

// TranscribeStream: тело запроса. Принимаемый формат уходит провайдеру
// потоком; остальное сначала пишется в staging и конвертируется.
func (s *Service) TranscribeStream(ctx context.Context, name string, r io.Reader) (*TranscriptionResult, error) {
	codec := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if Accepted(codec) {
		out, err := s.stt.Transcribe(ctx, ReaderSource(name, r))
		if err != nil {
			return nil, s.fail(ctx, "transcription", err, name)
		}
		return out, nil
	}

	res, err := s.stage(name, codec, r)
	if err != nil {
		return nil, s.fail(ctx, "staging", err, name)
	}
	defer s.cleanup(res)

	return s.transcribeResource(ctx, res)
}

func (s *Service) transcribeResource(ctx context.Context, res *ports.AudioResource) (*TranscriptionResult, error) {
	path := res.LocalPath
	if !Accepted(res.Codec) {
		convCtx, cancel := withTimeout(ctx, s.opts.ConvertTimeout)
		converted, err := s.converter.Convert(convCtx, res.LocalPath, s.opts.TargetCodec)
		cancel()
		if err != nil {
			return nil, s.fail(ctx, "conversion", err, res.Source)
		}
		defer s.remove(converted)
		path = converted
	}

	out, err := s.stt.Transcribe(ctx, FileSource(path))
	if err != nil {
		return nil, s.fail(ctx, "transcription", err, res.Source)
	}
	return out, nil
}

func (s *Service) stage(name, codec string, r io.Reader) (*ports.AudioResource, error) {
	ext := ""
	if codec != "" {
		ext = "." + codec
	}
	res := &ports.AudioResource{
		Source:    name,
		LocalPath: filepath.Join(s.opts.StagingDir, uuid.NewString()+ext),
		Codec:     codec,
	}

	f, err := os.OpenFile(res.LocalPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	return res, nil
}

func (s *Service) fail(ctx context.Context, stage string, err error, source string) error {
	s.log.Log(logger.LogEntry{
		Level:   "error",
		Message: fmt.Sprintf("[speech] %s failed for %s", stage, source),
		Error:   err,
		Service: "speech",
	})
	if !apperr.IsClient(err) {
		_ = s.notifier.Notify(ctx, "speech/"+stage, err, "source: "+source)
	}
	return err
}

func (s *Service) cleanup(res *ports.AudioResource) {
	if err := res.Cleanup(); err != nil {
		s.log.Log(logger.LogEntry{Level: "warn", Message: "staging cleanup failed", Error: err, Service: "speech"})
	}
}

func (s *Service) remove(path string) {
	s.cleanup(&ports.AudioResource{LocalPath: path})
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
