package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pavelanni/yoprep/internal/i18n"
	"github.com/pavelanni/yoprep/internal/model"
	"github.com/pavelanni/yoprep/internal/parser"
)

const maxMarkupBytes = 10 << 20

// examMeta reads exam metadata from the query string. examCode is required.
func examMeta(r *http.Request) (model.ExamMeta, error) {
	q := r.URL.Query()
	meta := model.ExamMeta{
		ExamCode: q.Get("examCode"),
		Subject:  q.Get("subject"),
	}
	if meta.ExamCode == "" {
		return meta, errMissingExamCode
	}
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return meta, fmt.Errorf("year %q: %w", y, err)
		}
		meta.Year = year
	}
	if s := q.Get("spring"); s != "" {
		spring, err := strconv.ParseBool(s)
		if err != nil {
			return meta, fmt.Errorf("spring %q: %w", s, err)
		}
		meta.IsSpringExam = spring
	}
	return meta, nil
}

var errMissingExamCode = errors.New("missing examCode")

// parseBody runs the request body through the parser. On failure it writes
// the error response and returns false.
func (h *Handler) parseBody(w http.ResponseWriter, r *http.Request) (parser.Result, bool) {
	ctx := r.Context()
	meta, err := examMeta(r)
	if errors.Is(err, errMissingExamCode) {
		writeError(w, http.StatusBadRequest, i18n.Td(ctx, "MissingField", map[string]any{"Field": "examCode"}))
		return parser.Result{}, false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, i18n.Td(ctx, "InvalidRequest", map[string]any{"Error": err.Error()}))
		return parser.Result{}, false
	}

	body := http.MaxBytesReader(w, r.Body, maxMarkupBytes)
	res, err := h.parser.ParseReader(body, r.URL.Query().Get("encoding"), meta)
	if err != nil {
		slog.Warn("read exam markup", "exam_code", meta.ExamCode, "error", err)
		writeError(w, http.StatusBadRequest, i18n.Td(ctx, "ReadSourceFailed", map[string]any{"Error": err.Error()}))
		return parser.Result{}, false
	}
	return res, true
}

func (h *Handler) handleParse(w http.ResponseWriter, r *http.Request) {
	res, ok := h.parseBody(w, r)
	if !ok {
		return
	}
	data, err := model.Marshal(res.Document)
	if err != nil {
		slog.Error("marshal exam", "exam_code", res.Document.ExamCode, "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(r.Context(), "InternalError"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

type importResponse struct {
	model.ImportResult
	Diagnostics parser.Diagnostics `json:"diagnostics"`
	Message     string             `json:"message"`
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	res, ok := h.parseBody(w, r)
	if !ok {
		return
	}
	saved, err := h.store.SaveExam(res.Document, "")
	if err != nil {
		writeStoreError(w, r, err, "")
		return
	}
	slog.Info("imported exam via API",
		"exam_code", saved.ExamCode, "count", len(saved.QuestionIDs), "batch", saved.BatchID)
	writeJSON(w, http.StatusCreated, importResponse{
		ImportResult: saved,
		Diagnostics:  res.Diagnostics,
		Message:      i18n.Tp(r.Context(), "QuestionsImported", len(saved.QuestionIDs)),
	})
}
