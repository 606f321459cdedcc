package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError: скачивание удалённого ресурса не удалось (сеть, не-2xx, запись на диск).
type FetchError struct {
	URL        string
	StatusCode int // 0, если ответа не было
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch failed: %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch failed: %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConversionError: ffmpeg не смог перекодировать файл.
type ConversionError struct {
	Src         string
	Codec       string
	Diagnostics string // stderr процесса
	Err         error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("conversion failed: %s -> %s: %v", e.Src, e.Codec, e.Err)
	if e.Diagnostics != "" {
		msg += ": " + e.Diagnostics
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ProviderError: провайдер (completion / transcription) отклонил запрос.
type ProviderError struct {
	Op         string // "completion" | "transcription"
	StatusCode int
	Payload    string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.StatusCode, e.Payload)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError: ошибка запроса / обновления в хранилище постов.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError: неверные входные данные запроса.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NotFoundError: запрошенной записи (пост, комментарий) нет.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}

func NotFound(what string) error {
	return &NotFoundError{What: what}
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func IsFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

func IsConversion(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

func IsProvider(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsClient: ошибка вызвана запросом клиента, а не сбоем сервиса или апстрима
func IsClient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode == http.StatusBadRequest
	}
	return IsValidation(err) || IsNotFound(err)
}
