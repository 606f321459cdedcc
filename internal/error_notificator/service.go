package error_notificator

import (
	"context"

	"github.com/Vovarama1992/go-utils/logger"
)

// Service не даёт ошибке уведомления всплыть в обработчик: только лог.
type Service struct {
	infra Notificator
	log   *logger.ZapLogger
}

func NewService(infra Notificator, log *logger.ZapLogger) *Service {
	return &Service{infra: infra, log: log}
}

func (s *Service) Notify(ctx context.Context, source string, err error, details string) error {
	if s.infra == nil {
		return nil
	}
	if sendErr := s.infra.Notify(ctx, source, err, details); sendErr != nil {
		s.log.Log(logger.LogEntry{Level: "warn", Message: "admin notify failed: " + source, Error: sendErr, Service: "error_notificator"})
	}
	return nil
}
