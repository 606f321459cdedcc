package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/ports"
)

// Протокол callable-функций: запрос {"data": ...}, ответ {"result": ...}
// или {"error": {"status": "INTERNAL", "message": ...}} с HTTP 500.

type callableError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type callableResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func decodeCallable[T any](r *http.Request) (T, error) {
	var env struct {
		Data T `json:"data"`
	}
	err := json.NewDecoder(r.Body).Decode(&env)
	return env.Data, err
}

func writeResult(w http.ResponseWriter, res callableResult) {
	writeJSON(w, http.StatusOK, map[string]any{"result": res})
}

func writeInternal(w http.ResponseWriter, log *logger.ZapLogger, fn string, err error) {
	log.Log(logger.LogEntry{Level: "error", Message: "[callable] " + fn + " failed", Error: err, Service: "callable"})
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error": callableError{Status: "INTERNAL", Message: err.Error()},
	})
}

type CallableHandler struct {
	posts      ports.PostService
	conversion ports.ConversionService
	log        *logger.ZapLogger
}

func NewCallableHandler(posts ports.PostService, conversion ports.ConversionService, log *logger.ZapLogger) *CallableHandler {
	return &CallableHandler{posts: posts, conversion: conversion, log: log}
}

// ConvertAudio: {sourceFile, targetCodec?} → {success, data: {file, url}}
func (h *CallableHandler) ConvertAudio(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCallable[struct {
		SourceFile  string `json:"sourceFile"`
		TargetCodec string `json:"targetCodec"`
	}](r)
	if err != nil {
		writeInternal(w, h.log, "convertAudio", err)
		return
	}

	res, err := h.conversion.ConvertAudio(r.Context(), req.SourceFile, req.TargetCodec)
	if err != nil {
		writeInternal(w, h.log, "convertAudio", err)
		return
	}
	writeResult(w, callableResult{Success: true, Data: res})
}

// GetAllPostsSortedByTime: {afterTimestamp?: {seconds, nanoseconds}}
func (h *CallableHandler) GetAllPostsSortedByTime(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCallable[struct {
		AfterTimestamp *ports.Timestamp `json:"afterTimestamp"`
	}](r)
	if err != nil {
		writeInternal(w, h.log, "getAllPostsSortedByTime", err)
		return
	}

	posts, err := h.posts.GetAllPostsSortedByTime(r.Context(), req.AfterTimestamp)
	h.writePosts(w, "getAllPostsSortedByTime", posts, err)
}

// GetPostsByUser: {uid}
func (h *CallableHandler) GetPostsByUser(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCallable[struct {
		UID string `json:"uid"`
	}](r)
	if err != nil {
		writeInternal(w, h.log, "getPostsByUser", err)
		return
	}

	posts, err := h.posts.GetPostsByUser(r.Context(), req.UID)
	h.writePosts(w, "getPostsByUser", posts, err)
}

// ошибка хранилища → success=false в result; остальное → INTERNAL
func (h *CallableHandler) writePosts(w http.ResponseWriter, fn string, posts []ports.Post, err error) {
	switch {
	case err == nil:
		writeResult(w, callableResult{Success: true, Data: posts})
	case apperr.IsStore(err):
		h.log.Log(logger.LogEntry{Level: "warn", Message: "[callable] " + fn + " store error", Error: err, Service: "callable"})
		writeResult(w, callableResult{Success: false, Error: err.Error()})
	default:
		writeInternal(w, h.log, fn, err)
	}
}
