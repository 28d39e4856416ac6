package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pavelanni/yoprep/internal/schema"
)

// ResolveIdentifier recovers the numbering string of a question or part node.
// Rules are tried in order and the first match wins; partial matches are
// never merged. A prefix with nothing after it does not count as a match.
func ResolveIdentifier(s *goquery.Selection, rules []schema.IDRule) (string, bool) {
	for _, r := range rules {
		v, ok := s.Attr(r.Attr)
		if !ok || v == "" {
			continue
		}
		if !strings.HasPrefix(v, r.Prefix) {
			continue
		}
		if id := strings.TrimPrefix(v, r.Prefix); id != "" {
			return id, true
		}
	}
	return "", false
}
