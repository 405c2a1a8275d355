package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/apexathon/careerdash/internal/chat"
	"github.com/apexathon/careerdash/internal/dashboard"
	"github.com/apexathon/careerdash/internal/metrics"
	"github.com/apexathon/careerdash/internal/overlay"
	"github.com/apexathon/careerdash/internal/profile"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds everything the HTTP surface needs.
type Deps struct {
	Form       *profile.Form
	Profiles   *profile.Repository
	Dashboards *dashboard.Manager

	// Token enables bearer authentication when non-empty.
	Token          string
	AllowedOrigins []string
}

// NewHandler returns the careerdash HTTP API. /health and /metrics are never
// authenticated.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(deps.AllowedOrigins).Handler)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}

		r.Get("/form/options", handleFormOptions)
		r.Get("/form/draft", handleGetDraft(deps))
		r.Patch("/form/draft", handlePatchDraft(deps))
		r.Delete("/form/draft", handleResetDraft(deps))
		r.Post("/form/submit", handleSubmit(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Delete("/profile", handleClearProfile(deps))

		r.Post("/dashboards", handleMount(deps))
		r.Route("/dashboards/{id}", func(r chi.Router) {
			r.Get("/", handleGetDashboard(deps))
			r.Delete("/", handleUnmount(deps))
			r.Get("/events", handleEvents(deps))

			r.Get("/overlay", handleGetOverlay(deps))
			r.Delete("/overlay", handleCloseOverlay(deps))
			r.Post("/overlay/courses", handleOpenDetail(deps, overlay.KindCourses))
			r.Post("/overlay/listings", handleOpenDetail(deps, overlay.KindListings))
			r.Post("/overlay/chat", handleOpenChat(deps))

			r.Get("/chat", handleGetChat(deps))
			r.Post("/chat", handleSendChat(deps))
		})
	})

	return r
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrNotFound), errors.Is(err, overlay.ErrUnknownRecommendation):
		httpError(w, http.StatusNotFound, "not_found_error", "%v", err)
	case errors.Is(err, profile.ErrIncomplete):
		httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%v", err)
	case errors.Is(err, profile.ErrUnknownField):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, chat.ErrBusy):
		httpError(w, http.StatusConflict, "conflict_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
