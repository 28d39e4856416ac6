package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/yoprep/internal/i18n"
	"github.com/pavelanni/yoprep/internal/llm"
	"github.com/pavelanni/yoprep/internal/parser"
	"github.com/pavelanni/yoprep/internal/store"
)

// Grader evaluates a student's answer. *llm.Client satisfies it.
type Grader interface {
	Evaluate(ctx context.Context, req llm.EvaluationRequest) llm.EvaluationResult
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	parser *parser.Parser
	store  *store.Store
	grader Grader
}

// New creates a new Handler.
func New(p *parser.Parser, s *store.Store, g Grader) *Handler {
	return &Handler{parser: p, store: s, grader: g}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", h.handleParse)
		r.Post("/exams/import", h.handleImport)

		r.Get("/questions", h.handleListQuestions)
		r.Get("/questions/random", h.handleRandomQuestion)
		r.Get("/questions/{id}", h.handleGetQuestion)
		r.Delete("/questions/{id}", h.handleDeleteQuestion)

		r.Post("/submissions", h.handleCreateSubmission)
		r.Get("/submissions/{id}", h.handleGetSubmission)
		r.Get("/submissions/student/{studentID}", h.handleStudentSubmissions)

		r.Get("/progress/{studentID}", h.handleProgress)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store failures: ErrNotFound becomes 404 with the
// given localized message, anything else a logged 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	slog.Error("store error", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
}

// idParam parses a positive integer URL parameter. On failure it writes a
// 400 response and returns false.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, i18n.Td(r.Context(), "InvalidID", map[string]any{"Value": raw}))
		return 0, false
	}
	return id, true
}
