package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/yoprep/internal/model"
)

const questionColumns = `q.id, q.exam_code, e.subject, e.year, e.is_spring, q.question_number,
	q.title, q.total_points, q.prompt_text, q.question_json, q.source_path, q.scraped_at`

// SaveExam stores an exam and all of its questions in one transaction.
// Re-importing an exam updates questions with the same number in place,
// so their storage ids stay stable. Returned ids follow document order.
func (s *Store) SaveExam(doc model.ExamDocument, sourcePath string) (model.ImportResult, error) {
	result := model.ImportResult{
		BatchID:     uuid.NewString(),
		ExamCode:    doc.ExamCode,
		QuestionIDs: []int64{},
	}

	tx, err := s.db.Begin()
	if err != nil {
		return result, err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.Exec(
		`INSERT INTO exams (code, subject, year, is_spring, import_batch, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET subject = ?, year = ?, is_spring = ?, import_batch = ?, imported_at = ?`,
		doc.ExamCode, doc.Subject, doc.Year, doc.IsSpringExam, result.BatchID, now,
		doc.Subject, doc.Year, doc.IsSpringExam, result.BatchID, now,
	)
	if err != nil {
		return result, fmt.Errorf("upsert exam %s: %w", doc.ExamCode, err)
	}

	for i, q := range doc.Questions {
		body, err := model.MarshalQuestion(q)
		if err != nil {
			return result, err
		}
		prompt := q.PromptText()
		_, err = tx.Exec(
			`INSERT INTO questions (exam_code, question_number, position, title, total_points, prompt_text, question_json, source_path, scraped_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(exam_code, question_number) DO UPDATE SET
			   position = ?, title = ?, total_points = ?, prompt_text = ?, question_json = ?, source_path = ?, scraped_at = ?`,
			doc.ExamCode, q.Number, i, q.Title, q.TotalPoints, prompt, string(body), sourcePath, now,
			i, q.Title, q.TotalPoints, prompt, string(body), sourcePath, now,
		)
		if err != nil {
			return result, fmt.Errorf("upsert question %s/%s: %w", doc.ExamCode, q.Number, err)
		}
		var id int64
		err = tx.QueryRow(
			`SELECT id FROM questions WHERE exam_code = ? AND question_number = ?`, doc.ExamCode, q.Number,
		).Scan(&id)
		if err != nil {
			return result, err
		}
		result.QuestionIDs = append(result.QuestionIDs, id)
	}

	removed, err := removeStaleQuestions(tx, doc.ExamCode, result.QuestionIDs)
	if err != nil {
		return result, fmt.Errorf("remove stale questions of %s: %w", doc.ExamCode, err)
	}

	if err := tx.Commit(); err != nil {
		return result, err
	}
	slog.Info("saved exam", "exam_code", doc.ExamCode, "questions", len(result.QuestionIDs),
		"removed", removed, "batch", result.BatchID)
	return result, nil
}

// removeStaleQuestions deletes the questions of an exam that are not in
// keep, together with their submissions. It returns the number removed.
func removeStaleQuestions(tx *sql.Tx, examCode string, keep []int64) (int64, error) {
	filter := `exam_code = ?`
	args := []any{examCode}
	if len(keep) > 0 {
		filter += ` AND id NOT IN (?` + strings.Repeat(`, ?`, len(keep)-1) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}
	_, err := tx.Exec(`DELETE FROM submissions WHERE question_id IN (SELECT id FROM questions WHERE `+filter+`)`, args...)
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM questions WHERE `+filter, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListQuestions returns stored questions in exam and document order.
func (s *Store) ListQuestions(f model.QuestionFilter) ([]model.StoredQuestion, error) {
	query := `SELECT ` + questionColumns + ` FROM questions q JOIN exams e ON e.code = q.exam_code WHERE 1=1`
	var args []any
	if f.Subject != "" {
		query += ` AND e.subject = ?`
		args = append(args, f.Subject)
	}
	if f.ExamCode != "" {
		query += ` AND q.exam_code = ?`
		args = append(args, f.ExamCode)
	}
	query += ` ORDER BY q.exam_code, q.position, q.id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	questions := []model.StoredQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.StoredQuestion, error) {
	row := s.db.QueryRow(
		`SELECT `+questionColumns+` FROM questions q JOIN exams e ON e.code = q.exam_code WHERE q.id = ?`, id,
	)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return q, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return q, err
}

// RandomQuestion returns a uniformly chosen stored question.
func (s *Store) RandomQuestion() (model.StoredQuestion, error) {
	row := s.db.QueryRow(
		`SELECT ` + questionColumns + ` FROM questions q JOIN exams e ON e.code = q.exam_code ORDER BY RANDOM() LIMIT 1`,
	)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return q, fmt.Errorf("no questions available: %w", ErrNotFound)
	}
	return q, err
}

// DeleteQuestion removes a question and its submissions.
func (s *Store) DeleteQuestion(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec(`DELETE FROM submissions WHERE question_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// QuestionCount returns the number of stored questions.
func (s *Store) QuestionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(r rowScanner) (model.StoredQuestion, error) {
	var q model.StoredQuestion
	err := r.Scan(&q.ID, &q.ExamCode, &q.Subject, &q.ExamYear, &q.IsSpringExam, &q.Number,
		&q.Title, &q.TotalPoints, &q.PromptText, &q.QuestionJSON, &q.SourcePath, &q.ScrapedAt)
	return q, err
}
