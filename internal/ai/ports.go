package ai

import "context"

type Completer interface {
	Complete(ctx context.Context, prompt string) (*CompletionResult, error)
}

type Service interface {
	// GetCompletion: prompt → ответ text-davinci-003 (с таймаутом и уведомлением об ошибке)
	GetCompletion(ctx context.Context, prompt string) (*CompletionResult, error)
}
