package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docsmithhq/backend/internal/handler/assistant"
	"github.com/docsmithhq/backend/internal/handler/conversations"
	"github.com/docsmithhq/backend/internal/handler/registry"
	middlewarePkg "github.com/docsmithhq/backend/internal/middleware"
	"github.com/docsmithhq/backend/internal/service/orchestrator"
	"github.com/docsmithhq/backend/internal/service/transcript"
	"github.com/docsmithhq/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(manager *orchestrator.Manager, transcripts *transcript.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	registryHandler := registry.New()
	conversationsHandler := conversations.New(transcripts)
	assistantHandler := assistant.New(manager)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		registryHandler.RegisterRoutes(api)
		conversationsHandler.RegisterRoutes(api)
		assistantHandler.RegisterRoutes(api)
	})

	return r
}
