package parser

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/pavelanni/yoprep/internal/model"
)

// partDepth is the nesting depth of sub-question nodes.
const partDepth = 1

// ExtractPart builds a Part from a sub-question node. It returns false when
// the node has no resolvable identifier; the caller drops such nodes.
func (p *Parser) ExtractPart(node *goquery.Selection) (model.Part, bool) {
	number, ok := ResolveIdentifier(node, p.classifier.IDRules())
	if !ok {
		return model.Part{}, false
	}
	part := model.Part{Number: number}

	rule := p.classifier.Rule(partDepth)
	heading := node.Find(rule.Heading).First()
	if heading.Length() == 0 {
		return part, true
	}

	part.Text, _ = firstText(heading, rule.Text)
	// Screen-reader text carries the alt text of formulas and images.
	// Empty sides are not joined, so no stray leading or trailing space.
	if alt, ok := firstText(heading, rule.AltText); ok && alt != "" {
		if part.Text == "" {
			part.Text = alt
		} else {
			part.Text += " " + alt
		}
	}
	score, _ := firstText(heading, rule.Score)
	part.Points = ExtractPoints(score)

	return part, true
}
