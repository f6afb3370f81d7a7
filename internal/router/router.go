package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studynook-backend/internal/handlers"
	"studynook-backend/internal/middleware"
	"studynook-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	aiLimiter *middleware.RateLimiter,
	aiHandler *handlers.AIHandler,
	materialHandler *handlers.MaterialHandler,
	artifactHandler *handlers.ArtifactHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Study task routes ────
		r.Route("/ai", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(aiLimiter.Middleware)
			r.Post("/explain", aiHandler.Explain)
			r.Post("/ask", aiHandler.Ask)
			r.Post("/quiz", aiHandler.Quiz)
			r.Post("/flashcards", aiHandler.Flashcards)
			r.Post("/knowledge-graph", aiHandler.KnowledgeGraph)
			r.Post("/exam", aiHandler.Exam)
			r.Post("/notes", aiHandler.Notes)
			r.Post("/schedule", aiHandler.Schedule)
			r.Post("/study-schedule", aiHandler.StudySchedule)
			r.Post("/coach", aiHandler.Coach)
			r.Post("/reverse-learning", aiHandler.ReverseLearning)
			r.Post("/citations", aiHandler.Citations)
			r.Post("/research", aiHandler.Research)
			r.Post("/word-map", aiHandler.WordMap)
			r.Post("/chat", aiHandler.Chat)
		})

		// ──── Material routes ────
		r.Route("/materials", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", materialHandler.List)
			r.Post("/", materialHandler.Create)
			r.Post("/upload", materialHandler.Upload)
			r.Post("/import-youtube", materialHandler.ImportYouTube)
			r.Get("/{id}", materialHandler.Get)
			r.Put("/{id}", materialHandler.Update)
			r.Delete("/{id}", materialHandler.Delete)
		})

		// ──── Artifact routes ────
		r.Route("/artifacts", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.With(aiLimiter.Middleware).Post("/generate", artifactHandler.Generate)
			r.Get("/", artifactHandler.List)
			r.Get("/{id}", artifactHandler.Get)
			r.Delete("/{id}", artifactHandler.Delete)
		})

		// ──── Job routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetJob)
			r.Delete("/{id}", jobHandler.CancelJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
