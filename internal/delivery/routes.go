package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// NewRouter: chi с CORS, лимитом запросов на IP (в минуту, 0 = без лимита) и /ping
func NewRouter(rateLimit int) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	if rateLimit > 0 {
		r.Use(httprate.LimitByIP(rateLimit, time.Minute))
	}

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	return r
}

func RegisterRoutes(
	r chi.Router,
	hAI *AIHandler,
	hSpeech *SpeechHandler,
	hCall *CallableHandler,
	hPosts *PostHandler,
) {
	r.Group(func(pr chi.Router) {
		pr.Use(httputil.RecoverMiddleware)

		// --- request-style ---
		pr.Post("/davinci", hAI.Davinci)
		pr.Post("/transcribe", hSpeech.Transcribe)
		pr.Post("/transcribe/stream", hSpeech.TranscribeStream)

		// --- callable ---
		pr.Post("/callable/convertAudio", hCall.ConvertAudio)
		pr.Post("/callable/getAllPostsSortedByTime", hCall.GetAllPostsSortedByTime)
		pr.Post("/callable/getPostsByUser", hCall.GetPostsByUser)

		// --- посты и комментарии ---
		pr.Post("/posts/{owner_id}", hPosts.CreatePost)
		pr.Post("/posts/{owner_id}/{post_id}/comments", hPosts.AddComment)
		pr.Delete("/posts/{owner_id}/{post_id}/comments/{comment_id}", hPosts.DeleteComment)
	})
}
