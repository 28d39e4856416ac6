package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/pavelanni/yoprep/internal/schema"
)

func selectionFor(t *testing.T, markup string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	sel := doc.Find("#target, [data-target]").First()
	if sel.Length() == 0 {
		t.Fatalf("no target element in %q", markup)
	}
	return sel
}

func TestResolveIdentifier(t *testing.T) {
	rules := schema.Abitreenit.IDRules()

	tests := []struct {
		name   string
		markup string
		want   string
		wantOK bool
	}{
		{
			name:   "toc id",
			markup: `<div data-target data-toc-id="question-1"></div>`,
			want:   "1", wantOK: true,
		},
		{
			name:   "toc id wins over element id",
			markup: `<div data-target data-toc-id="question-3" id="question-nr-4"></div>`,
			want:   "3", wantOK: true,
		},
		{
			name:   "element id fallback",
			markup: `<div data-target id="question-nr-1.2"></div>`,
			want:   "1.2", wantOK: true,
		},
		{
			name:   "toc id with wrong prefix falls back",
			markup: `<div data-target data-toc-id="section-1" id="question-nr-7"></div>`,
			want:   "7", wantOK: true,
		},
		{
			name:   "empty toc id falls back",
			markup: `<div data-target data-toc-id="" id="question-nr-8"></div>`,
			want:   "8", wantOK: true,
		},
		{
			name:   "element id without prefix",
			markup: `<div id="target"></div>`,
			wantOK: false,
		},
		{
			name:   "no attributes",
			markup: `<div data-target></div>`,
			wantOK: false,
		},
		{
			name:   "bare prefix is not an identifier",
			markup: `<div data-target data-toc-id="question-"></div>`,
			wantOK: false,
		},
		{
			name:   "toc prefix on element id does not count",
			markup: `<div data-target id="question-5x"></div>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveIdentifier(selectionFor(t, tt.markup), rules)
			if ok != tt.wantOK {
				t.Fatalf("ResolveIdentifier ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ResolveIdentifier = %q, want %q", got, tt.want)
			}
		})
	}
}
