package delivery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_posts/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor: HTTP-статус по виду ошибки
func statusFor(err error) int {
	var (
		maxErr  *http.MaxBytesError
		provErr *apperr.ProviderError
	)
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &provErr):
		// 400 от провайдера значит плохой запрос клиента, прочее считаем сбоем апстрима
		if provErr.StatusCode == http.StatusBadRequest {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case apperr.IsFetch(err):
		return http.StatusBadGateway
	case apperr.IsConversion(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log *logger.ZapLogger, service string, err error) {
	status := statusFor(err)
	level := "error"
	if status < http.StatusInternalServerError {
		level = "warn"
	}
	log.Log(logger.LogEntry{Level: level, Message: "request failed", Error: err, Service: service})
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": msg})
}
