package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	analysisHandler "github.com/lexhq/lex-backend/internal/handler/analysis"
	chatHandler "github.com/lexhq/lex-backend/internal/handler/chat"
	"github.com/lexhq/lex-backend/internal/middleware"
	"github.com/lexhq/lex-backend/internal/service/orchestrator"
	"github.com/lexhq/lex-backend/pkg/utils"
)

// NewRouter wires HTTP routes to the orchestrator. All /api routes require a
// bearer token signed with jwtSecret.
func NewRouter(orch *orchestrator.Service, jwtSecret string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Auth(jwtSecret))

		analysisHandler.New(orch).RegisterRoutes(api)
		chatHandler.New(orch).RegisterRoutes(api)
	})

	return r
}
