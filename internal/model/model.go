package model

import (
	"strings"
	"time"
)

// ExamMeta is the caller-supplied exam metadata. None of it is inferred from markup.
type ExamMeta struct {
	ExamCode     string
	Subject      string
	Year         int
	IsSpringExam bool
}

// ExamDocument is one parsed exam. Questions are in printed order.
type ExamDocument struct {
	ExamCode     string
	Subject      string
	Year         int
	IsSpringExam bool
	Questions    []Question
}

// NewExamDocument creates an empty document carrying the given metadata.
func NewExamDocument(meta ExamMeta) ExamDocument {
	return ExamDocument{
		ExamCode:     meta.ExamCode,
		Subject:      meta.Subject,
		Year:         meta.Year,
		IsSpringExam: meta.IsSpringExam,
		Questions:    []Question{},
	}
}

// Meta returns the metadata the document was built from.
func (d ExamDocument) Meta() ExamMeta {
	return ExamMeta{
		ExamCode:     d.ExamCode,
		Subject:      d.Subject,
		Year:         d.Year,
		IsSpringExam: d.IsSpringExam,
	}
}

// Question is a top-level exam question.
type Question struct {
	Number          string
	Title           string
	TotalPoints     int
	InstructionText string
	Parts           []Part
}

// PromptText joins the readable pieces of a question, in printed order,
// into the text handed to the grader.
func (q Question) PromptText() string {
	var lines []string
	if q.Title != "" {
		lines = append(lines, q.Title)
	}
	if q.InstructionText != "" {
		lines = append(lines, q.InstructionText)
	}
	for _, p := range q.Parts {
		line := p.Number
		if p.Text != "" {
			line += " " + p.Text
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Part is one sub-question of a Question.
type Part struct {
	Number string
	Text   string
	Points int
}

// StoredQuestion is a Question as kept by the persistence layer.
type StoredQuestion struct {
	ID           int64     `json:"id"`
	ExamCode     string    `json:"examCode"`
	Subject      string    `json:"subject"`
	ExamYear     int       `json:"examYear"`
	IsSpringExam bool      `json:"isSpringExam"`
	Number       string    `json:"questionNumber"`
	Title        string    `json:"title"`
	TotalPoints  int       `json:"totalPoints"`
	PromptText   string    `json:"questionText"`
	QuestionJSON string    `json:"questionJson"`
	SourcePath   string    `json:"sourcePath"`
	ScrapedAt    time.Time `json:"scrapedAt"`
}

// QuestionFilter narrows ListQuestions. Empty fields mean no filtering.
type QuestionFilter struct {
	Subject  string
	ExamCode string
}

// Submission is a student's answer together with the grader's verdict.
type Submission struct {
	ID          int64     `json:"id"`
	QuestionID  int64     `json:"questionId"`
	StudentID   string    `json:"studentId"`
	AnswerText  string    `json:"answerText"`
	AIGrade     string    `json:"aiGrade"`
	AIFeedback  string    `json:"aiFeedback"`
	AIScore     int       `json:"aiScore"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// SubjectProgress summarizes a student's submissions in one subject.
type SubjectProgress struct {
	Subject      string  `json:"subject"`
	TotalAnswers int     `json:"totalAnswers"`
	AverageScore float64 `json:"averageScore"`
	BestScore    int     `json:"bestScore"`
}

// Progress is the per-student summary across subjects.
type Progress struct {
	StudentID        string            `json:"studentId"`
	TotalSubmissions int               `json:"totalSubmissions"`
	Subjects         []SubjectProgress `json:"subjects"`
}

// ImportResult reports what an import stored.
type ImportResult struct {
	BatchID     string  `json:"batchId"`
	ExamCode    string  `json:"examCode"`
	QuestionIDs []int64 `json:"questionIds"`
}
