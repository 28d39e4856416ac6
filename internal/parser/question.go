package parser

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/pavelanni/yoprep/internal/model"
)

// questionDepth is the nesting depth of top-level question nodes.
const questionDepth = 0

// ExtractQuestions builds a Question for every top-level question node of
// doc, in document order. Nodes without a resolvable identifier are dropped
// and counted in diag, which may be nil.
func (p *Parser) ExtractQuestions(doc *goquery.Selection, diag *Diagnostics) []model.Question {
	if diag == nil {
		diag = &Diagnostics{}
	}
	questions := []model.Question{}
	roots := p.classifier.Roots(doc)
	diag.QuestionNodes += roots.Length()

	roots.Each(func(i int, node *goquery.Selection) {
		q, ok := p.extractQuestion(node, diag)
		if !ok {
			diag.DroppedQuestions++
			p.logger.Debug("dropping question node without identifier",
				"schema", p.classifier.Name(), "index", i)
			return
		}
		questions = append(questions, q)
	})
	return questions
}

func (p *Parser) extractQuestion(node *goquery.Selection, diag *Diagnostics) (model.Question, bool) {
	number, ok := ResolveIdentifier(node, p.classifier.IDRules())
	if !ok {
		return model.Question{}, false
	}
	q := model.Question{Number: number, Parts: []model.Part{}}

	rule := p.classifier.Rule(questionDepth)
	if heading := node.Find(rule.Heading).First(); heading.Length() > 0 {
		q.Title, _ = firstText(heading, rule.Text)
		score, _ := firstText(heading, rule.Score)
		q.TotalPoints = ExtractPoints(score)
	}
	q.InstructionText, _ = firstText(node, rule.Instruction)

	children := p.classifier.Children(questionDepth, node)
	diag.PartNodes += children.Length()
	children.Each(func(i int, child *goquery.Selection) {
		part, ok := p.ExtractPart(child)
		if !ok {
			diag.DroppedParts++
			p.logger.Debug("dropping part node without identifier",
				"question", number, "index", i)
			return
		}
		q.Parts = append(q.Parts, part)
	})

	return q, true
}
