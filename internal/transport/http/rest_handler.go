package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/theme"
)

// RESTHandler serves the read-only JSON endpoints next to the websocket.
type RESTHandler struct {
	service *app.QuizService
	theme   theme.Theme
	logger  *slog.Logger
}

func NewRESTHandler(service *app.QuizService, t theme.Theme, logger *slog.Logger) *RESTHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTHandler{service: service, theme: t, logger: logger}
}

// Register mounts the endpoints on mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /scores", h.Scores)
	mux.HandleFunc("GET /categories", h.Categories)
	mux.HandleFunc("GET /theme", h.Theme)
}

func (h *RESTHandler) Scores(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.HighScores(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *RESTHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list categories failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *RESTHandler) Theme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.theme)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
