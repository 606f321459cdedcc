package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_posts/internal/ai"
)

type AIHandler struct {
	svc ai.Service
	log *logger.ZapLogger
}

func NewAIHandler(svc ai.Service, log *logger.ZapLogger) *AIHandler {
	return &AIHandler{svc: svc, log: log}
}

// Davinci: POST /davinci {prompt}; ответ провайдера отдаётся как есть
func (h *AIHandler) Davinci(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json: "+err.Error())
		return
	}

	res, err := h.svc.GetCompletion(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, h.log, "ai", err)
		return
	}
	writeJSON(w, http.StatusOK, res.Raw)
}
