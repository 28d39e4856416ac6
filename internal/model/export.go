package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// QuestionTypeMultiPart is the only question type the extractor produces.
const QuestionTypeMultiPart = "multi_part"

// ExamExport is the canonical JSON form of an ExamDocument.
// Field order here is the serialized key order.
type ExamExport struct {
	ExamCode     string           `json:"examCode"`
	Subject      string           `json:"subject"`
	Year         int              `json:"year"`
	IsSpringExam bool             `json:"isSpringExam"`
	Questions    []QuestionExport `json:"questions"`
}

// QuestionExport is the canonical JSON form of a Question.
type QuestionExport struct {
	QuestionNumber string       `json:"questionNumber"`
	Title          string       `json:"title"`
	TotalPoints    int          `json:"totalPoints"`
	QuestionJSON   QuestionBody `json:"questionJson"`
	HVPJSON        struct{}     `json:"hvpJson"`
}

// QuestionBody carries the instruction text and the ordered parts.
type QuestionBody struct {
	Text  string       `json:"text"`
	Type  string       `json:"type"`
	Parts []PartExport `json:"parts"`
}

// PartExport is the canonical JSON form of a Part.
type PartExport struct {
	PartNumber string `json:"partNumber"`
	Text       string `json:"text"`
	Points     int    `json:"points"`
}

// Export converts a document to its canonical JSON form.
// Empty sequences become empty arrays, never null.
func Export(doc ExamDocument) ExamExport {
	out := ExamExport{
		ExamCode:     doc.ExamCode,
		Subject:      doc.Subject,
		Year:         doc.Year,
		IsSpringExam: doc.IsSpringExam,
		Questions:    make([]QuestionExport, 0, len(doc.Questions)),
	}
	for _, q := range doc.Questions {
		out.Questions = append(out.Questions, ExportQuestion(q))
	}
	return out
}

// ExportQuestion converts one question to its canonical JSON form.
func ExportQuestion(q Question) QuestionExport {
	parts := make([]PartExport, 0, len(q.Parts))
	for _, p := range q.Parts {
		parts = append(parts, PartExport{
			PartNumber: p.Number,
			Text:       p.Text,
			Points:     p.Points,
		})
	}
	return QuestionExport{
		QuestionNumber: q.Number,
		Title:          q.Title,
		TotalPoints:    q.TotalPoints,
		QuestionJSON: QuestionBody{
			Text:  q.InstructionText,
			Type:  QuestionTypeMultiPart,
			Parts: parts,
		},
	}
}

// ErrMissingExamCode is returned when canonical JSON carries no exam code.
var ErrMissingExamCode = errors.New("exam code is empty")

// Import converts the canonical JSON form back to a document. Questions and
// parts without a number are dropped, as the extractor drops nodes whose
// identifier cannot be resolved.
func (e ExamExport) Import() ExamDocument {
	doc := NewExamDocument(ExamMeta{
		ExamCode:     e.ExamCode,
		Subject:      e.Subject,
		Year:         e.Year,
		IsSpringExam: e.IsSpringExam,
	})
	for _, qe := range e.Questions {
		if strings.TrimSpace(qe.QuestionNumber) == "" {
			continue
		}
		q := Question{
			Number:          qe.QuestionNumber,
			Title:           qe.Title,
			TotalPoints:     qe.TotalPoints,
			InstructionText: qe.QuestionJSON.Text,
			Parts:           []Part{},
		}
		for _, pe := range qe.QuestionJSON.Parts {
			if strings.TrimSpace(pe.PartNumber) == "" {
				continue
			}
			q.Parts = append(q.Parts, Part{Number: pe.PartNumber, Text: pe.Text, Points: pe.Points})
		}
		doc.Questions = append(doc.Questions, q)
	}
	return doc
}

// Marshal serializes a document as indented JSON with a trailing newline.
// Output is byte-identical for identical documents.
func Marshal(doc ExamDocument) ([]byte, error) {
	return marshalIndent(Export(doc))
}

// MarshalQuestion serializes a single question in canonical form.
func MarshalQuestion(q Question) ([]byte, error) {
	return json.Marshal(ExportQuestion(q))
}

// Unmarshal parses the canonical JSON form. The exam code is required.
func Unmarshal(data []byte) (ExamDocument, error) {
	var e ExamExport
	if err := json.Unmarshal(data, &e); err != nil {
		return ExamDocument{}, fmt.Errorf("decode exam JSON: %w", err)
	}
	if strings.TrimSpace(e.ExamCode) == "" {
		return ExamDocument{}, ErrMissingExamCode
	}
	return e.Import(), nil
}

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return buf.Bytes(), nil
}
