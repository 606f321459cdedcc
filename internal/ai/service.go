package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/error_notificator"
)

type AiService struct {
	client   Completer
	timeout  time.Duration
	notifier error_notificator.Notificator
	log      *logger.ZapLogger
}

func NewAiService(
	client Completer,
	timeout time.Duration,
	notifier error_notificator.Notificator,
	log *logger.ZapLogger,
) *AiService {
	return &AiService{
		client:   client,
		timeout:  timeout,
		notifier: notifier,
		log:      log,
	}
}

// диагностика ошибок провайдера
func analyzeOpenAIError(err error) string {
	var pe *apperr.ProviderError
	if !errors.As(err, &pe) {
		return "Unknown OpenAI error: " + err.Error()
	}

	switch pe.StatusCode {
	case http.StatusUnauthorized:
		return "Invalid OpenAI API key."
	case http.StatusNotFound:
		return "Model not found."
	case http.StatusTooManyRequests:
		return "OpenAI rate limit exceeded."
	case http.StatusBadRequest:
		return "Malformed request to OpenAI."
	case 0:
		return "OpenAI unreachable: " + pe.Payload
	}
	if pe.StatusCode >= 500 {
		return "OpenAI internal error."
	}
	return "Unknown OpenAI error: " + pe.Payload
}

func (s *AiService) GetCompletion(ctx context.Context, prompt string) (*CompletionResult, error) {
	start := time.Now()

	ctxGPT := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctxGPT, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.client.Complete(ctxGPT, prompt)
	if err != nil {
		diag := analyzeOpenAIError(err)
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: fmt.Sprintf("[ai][%.1fs] completion failed: %s", time.Since(start).Seconds(), diag),
			Error:   err,
			Service: "ai",
		})
		if !apperr.IsClient(err) {
			_ = s.notifier.Notify(ctx, "completion", err, fmt.Sprintf("Model: %s\n%s", CompletionModel, diag))
		}
		return nil, err
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("[ai][%.1fs] completion done, text length %d", time.Since(start).Seconds(), len(res.Text)),
		Service: "ai",
	})
	return res, nil
}
