package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/yoprep/internal/i18n"
	"github.com/pavelanni/yoprep/internal/llm"
	"github.com/pavelanni/yoprep/internal/model"
)

type submissionRequest struct {
	StudentID  string `json:"studentId"`
	QuestionID int64  `json:"questionId"`
	AnswerText string `json:"answerText"`
}

func (h *Handler) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, i18n.Td(ctx, "InvalidRequest", map[string]any{"Error": err.Error()}))
		return
	}
	switch {
	case strings.TrimSpace(req.StudentID) == "":
		writeError(w, http.StatusBadRequest, i18n.Td(ctx, "MissingField", map[string]any{"Field": "studentId"}))
		return
	case req.QuestionID <= 0:
		writeError(w, http.StatusBadRequest, i18n.Td(ctx, "MissingField", map[string]any{"Field": "questionId"}))
		return
	case strings.TrimSpace(req.AnswerText) == "":
		writeError(w, http.StatusBadRequest, i18n.Td(ctx, "MissingField", map[string]any{"Field": "answerText"}))
		return
	}

	q, err := h.store.GetQuestion(req.QuestionID)
	if err != nil {
		writeStoreError(w, r, err, i18n.Td(ctx, "QuestionNotFound", map[string]any{"ID": req.QuestionID}))
		return
	}

	result := h.grader.Evaluate(ctx, llm.EvaluationRequest{
		Subject:      q.Subject,
		ExamCode:     q.ExamCode,
		QuestionText: q.PromptText,
		MaxPoints:    q.TotalPoints,
		AnswerText:   req.AnswerText,
	})

	sub, err := h.store.CreateSubmission(model.Submission{
		QuestionID: q.ID,
		StudentID:  req.StudentID,
		AnswerText: req.AnswerText,
		AIGrade:    result.Grade,
		AIFeedback: result.Feedback,
		AIScore:    result.Score,
	})
	if err != nil {
		writeStoreError(w, r, err, "")
		return
	}
	slog.Info("graded submission",
		"submission_id", sub.ID, "question_id", q.ID, "student_id", sub.StudentID, "grade", sub.AIGrade)
	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	sub, err := h.store.GetSubmission(id)
	if err != nil {
		writeStoreError(w, r, err, i18n.Td(r.Context(), "SubmissionNotFound", map[string]any{"ID": id}))
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleStudentSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubmissionsByStudent(chi.URLParam(r, "studentID"))
	if err != nil {
		writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Progress(chi.URLParam(r, "studentID"))
	if err != nil {
		writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
