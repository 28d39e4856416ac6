package handler

import (
	"net/http"

	"github.com/pavelanni/yoprep/internal/i18n"
	"github.com/pavelanni/yoprep/internal/model"
)

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions(model.QuestionFilter{
		Subject:  r.URL.Query().Get("subject"),
		ExamCode: r.URL.Query().Get("examCode"),
	})
	if err != nil {
		writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleRandomQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.RandomQuestion()
	if err != nil {
		writeStoreError(w, r, err, i18n.T(r.Context(), "NoQuestionsAvailable"))
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	q, err := h.store.GetQuestion(id)
	if err != nil {
		writeStoreError(w, r, err, i18n.Td(r.Context(), "QuestionNotFound", map[string]any{"ID": id}))
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteQuestion(id); err != nil {
		writeStoreError(w, r, err, i18n.Td(r.Context(), "QuestionNotFound", map[string]any{"ID": id}))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": i18n.Td(r.Context(), "QuestionDeleted", map[string]any{"ID": id}),
	})
}
