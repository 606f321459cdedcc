package delivery

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_posts/internal/ports"
	"github.com/Vovarama1992/voice_posts/internal/speech"
)

type SpeechHandler struct {
	svc      speech.TranscriptionService
	maxBytes int64
	log      *logger.ZapLogger
}

func NewSpeechHandler(svc speech.TranscriptionService, maxBytes int64, log *logger.ZapLogger) *SpeechHandler {
	return &SpeechHandler{svc: svc, maxBytes: maxBytes, log: log}
}

// Transcribe: POST /transcribe {url}
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		badRequest(w, "url is required")
		return
	}

	res, err := h.svc.TranscribeURL(r.Context(), req.URL)
	if err != nil {
		writeError(w, h.log, "speech", err)
		return
	}
	writeJSON(w, http.StatusOK, res.Raw)
}

// TranscribeStream (POST /transcribe/stream): сырое тело или multipart с полем file.
// Имя файла для сырого тела: ?name=..., иначе расширение по Content-Type.
func (h *SpeechHandler) TranscribeStream(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	name, body, err := h.audioBody(r)
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			writeError(w, h.log, "speech", err)
			return
		}
		badRequest(w, err.Error())
		return
	}

	res, err := h.svc.TranscribeStream(r.Context(), name, body)
	if err != nil {
		writeError(w, h.log, "speech", err)
		return
	}
	writeJSON(w, http.StatusOK, res.Raw)
}

func (h *SpeechHandler) audioBody(r *http.Request) (string, io.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		mr, err := r.MultipartReader()
		if err != nil {
			return "", nil, err
		}
		part, err := nextFilePart(mr)
		if err != nil {
			return "", nil, err
		}
		name := filepath.Base(part.FileName())
		if name == "." || name == "/" {
			name = "audio"
		}
		return name, part, nil
	}

	if r.ContentLength == 0 {
		return "", nil, errors.New("empty body")
	}

	name := filepath.Base(r.URL.Query().Get("name"))
	if name == "." || name == "/" {
		name = "audio"
	}
	if filepath.Ext(name) == "" {
		name += ports.ExtFromContentType(r.Header.Get("Content-Type"))
	}
	return name, r.Body, nil
}

func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New("multipart field \"file\" is missing")
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		_ = part.Close()
	}
}
