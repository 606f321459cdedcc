package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/voice_posts/internal/ports"
)

type PostHandler struct {
	posts ports.PostService
	log   *logger.ZapLogger
}

func NewPostHandler(posts ports.PostService, log *logger.ZapLogger) *PostHandler {
	return &PostHandler{posts: posts, log: log}
}

// CreatePost: POST /posts/{owner_id} {text, audioUrl}
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		AudioURL string `json:"audioUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json: "+err.Error())
		return
	}

	p, err := h.posts.CreatePost(r.Context(), chi.URLParam(r, "owner_id"), req.Text, req.AudioURL)
	if err != nil {
		writeError(w, h.log, "posts", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// AddComment: POST /posts/{owner_id}/{post_id}/comments {author_id, text}
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AuthorID string `json:"author_id"`
		Text     string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json: "+err.Error())
		return
	}

	id, err := h.posts.AddComment(r.Context(),
		chi.URLParam(r, "owner_id"),
		chi.URLParam(r, "post_id"),
		req.AuthorID,
		req.Text,
	)
	if err != nil {
		writeError(w, h.log, "comments", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.posts.DeleteComment(r.Context(),
		chi.URLParam(r, "owner_id"),
		chi.URLParam(r, "post_id"),
		chi.URLParam(r, "comment_id"),
	)
	if err != nil {
		writeError(w, h.log, "comments", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
