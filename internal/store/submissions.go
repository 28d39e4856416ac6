package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/pavelanni/yoprep/internal/model"
)

// CreateSubmission stores a graded answer and returns it with its ID and
// timestamp filled in.
func (s *Store) CreateSubmission(sub model.Submission) (model.Submission, error) {
	sub.SubmittedAt = time.Now()
	res, err := s.db.Exec(
		`INSERT INTO submissions (question_id, student_id, answer_text, ai_grade, ai_feedback, ai_score, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.QuestionID, sub.StudentID, sub.AnswerText, sub.AIGrade, sub.AIFeedback, sub.AIScore, sub.SubmittedAt,
	)
	if err != nil {
		return sub, err
	}
	sub.ID, err = res.LastInsertId()
	return sub, err
}

// GetSubmission returns a submission by ID.
func (s *Store) GetSubmission(id int64) (model.Submission, error) {
	var sub model.Submission
	err := s.db.QueryRow(
		`SELECT id, question_id, student_id, answer_text, ai_grade, ai_feedback, ai_score, submitted_at
		 FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.QuestionID, &sub.StudentID, &sub.AnswerText, &sub.AIGrade, &sub.AIFeedback, &sub.AIScore, &sub.SubmittedAt)
	if err == sql.ErrNoRows {
		return sub, fmt.Errorf("submission %d: %w", id, ErrNotFound)
	}
	return sub, err
}

// ListSubmissionsByStudent returns a student's submissions, oldest first.
func (s *Store) ListSubmissionsByStudent(studentID string) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT id, question_id, student_id, answer_text, ai_grade, ai_feedback, ai_score, submitted_at
		 FROM submissions WHERE student_id = ? ORDER BY id`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	subs := []model.Submission{}
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.QuestionID, &sub.StudentID, &sub.AnswerText, &sub.AIGrade, &sub.AIFeedback, &sub.AIScore, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Progress summarizes a student's submissions per subject. The average
// score is rounded to one decimal.
func (s *Store) Progress(studentID string) (model.Progress, error) {
	p := model.Progress{StudentID: studentID, Subjects: []model.SubjectProgress{}}
	rows, err := s.db.Query(
		`SELECT e.subject, COUNT(*), AVG(s.ai_score), MAX(s.ai_score)
		 FROM submissions s
		 JOIN questions q ON q.id = s.question_id
		 JOIN exams e ON e.code = q.exam_code
		 WHERE s.student_id = ?
		 GROUP BY e.subject
		 ORDER BY e.subject`, studentID,
	)
	if err != nil {
		return p, err
	}
	defer rows.Close()
	for rows.Next() {
		var sp model.SubjectProgress
		var avg sql.NullFloat64
		var best sql.NullInt64
		if err := rows.Scan(&sp.Subject, &sp.TotalAnswers, &avg, &best); err != nil {
			return p, err
		}
		sp.AverageScore = math.Round(avg.Float64*10) / 10
		sp.BestScore = int(best.Int64)
		p.TotalSubmissions += sp.TotalAnswers
		p.Subjects = append(p.Subjects, sp)
	}
	return p, rows.Err()
}
