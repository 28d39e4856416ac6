// Package parser converts exam markup into an ExamDocument.
//
// The pipeline is a pure function of its input: load the markup into a
// tree, select top-level question nodes, then build questions and their
// parts. Nodes whose numbering cannot be resolved are dropped, never
// reported as errors. Only failures to read the source are errors.
package parser

import (
	"io"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/pavelanni/yoprep/internal/model"
	"github.com/pavelanni/yoprep/internal/schema"
)

// Diagnostics counts what the extractor saw and what it dropped.
type Diagnostics struct {
	QuestionNodes    int `json:"questionNodes"`
	DroppedQuestions int `json:"droppedQuestions"`
	PartNodes        int `json:"partNodes"`
	DroppedParts     int `json:"droppedParts"`
}

// Partial reports whether any node was dropped.
func (d Diagnostics) Partial() bool {
	return d.DroppedQuestions > 0 || d.DroppedParts > 0
}

// Result is the output of one parse.
type Result struct {
	Document    model.ExamDocument
	Diagnostics Diagnostics
}

// Parser extracts exams using one markup classifier. It holds no mutable
// state and is safe for concurrent use.
type Parser struct {
	classifier schema.NodeClassifier
	logger     *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for drop and empty-result messages.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New creates a Parser for the given classifier.
func New(c schema.NodeClassifier, opts ...Option) *Parser {
	p := &Parser{classifier: c, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse extracts an exam from an already loaded document tree.
func (p *Parser) Parse(doc *goquery.Document, meta model.ExamMeta) Result {
	var diag Diagnostics
	exam := model.NewExamDocument(meta)
	exam.Questions = p.ExtractQuestions(doc.Selection, &diag)

	switch {
	case diag.QuestionNodes == 0:
		p.logger.Warn("no question nodes matched; markup convention may have changed",
			"schema", p.classifier.Name(), "exam_code", meta.ExamCode)
	case diag.Partial():
		p.logger.Info("partial extraction",
			"exam_code", meta.ExamCode,
			"questions", len(exam.Questions),
			"dropped_questions", diag.DroppedQuestions,
			"dropped_parts", diag.DroppedParts)
	default:
		p.logger.Debug("extracted exam",
			"exam_code", meta.ExamCode, "questions", len(exam.Questions))
	}

	return Result{Document: exam, Diagnostics: diag}
}

// ParseReader loads markup from r in the declared encoding and parses it.
func (p *Parser) ParseReader(r io.Reader, encoding string, meta model.ExamMeta) (Result, error) {
	doc, err := Load(r, encoding)
	if err != nil {
		return Result{}, err
	}
	return p.Parse(doc, meta), nil
}

// ParseFile loads the markup file at path and parses it.
func (p *Parser) ParseFile(path, encoding string, meta model.ExamMeta) (Result, error) {
	doc, err := LoadFile(path, encoding)
	if err != nil {
		return Result{}, err
	}
	return p.Parse(doc, meta), nil
}

// ToJSON parses the markup file at path and returns the canonical JSON.
func (p *Parser) ToJSON(path, encoding string, meta model.ExamMeta) ([]byte, error) {
	res, err := p.ParseFile(path, encoding, meta)
	if err != nil {
		return nil, err
	}
	return model.Marshal(res.Document)
}
