// Package schema describes how a provider's exam markup encodes structure:
// which elements are questions and sub-questions, where their headings,
// texts and score markers live, and how numbering identifiers are read.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// NodeClassifier locates structural nodes in a parsed exam document.
// Depth 0 is a top-level question, depth 1 a sub-question part.
type NodeClassifier interface {
	// Name identifies the markup convention.
	Name() string
	// Depth is the number of nesting levels the classifier knows about.
	Depth() int
	// Roots returns all top-level question nodes in document order.
	Roots(doc *goquery.Selection) *goquery.Selection
	// Children returns the direct children of node that are nodes of depth+1.
	Children(depth int, node *goquery.Selection) *goquery.Selection
	// Rule returns the content selectors for nodes at the given depth.
	Rule(depth int) LevelRule
	// IDRules returns the identifier fallback chain, first success wins.
	IDRules() []IDRule
}

// LevelRule holds the selectors used for one nesting depth.
type LevelRule struct {
	// Node matches nodes of this depth. At depth 0 it is applied to the
	// whole document; deeper levels only consider direct children.
	Node string
	// Heading is the heading element inside a node (first match).
	Heading string
	// Text is the language-tagged inline element inside the heading.
	Text string
	// Score is the score-marker element inside the heading.
	Score string
	// AltText is the screen-reader-only element inside the heading.
	// Empty disables alt-text appending.
	AltText string
	// Instruction is the instruction element inside the node.
	// Empty disables instruction extraction.
	Instruction string
}

// IDRule reads the attribute Attr and accepts it if it starts with Prefix.
// The identifier is the remainder after the prefix.
type IDRule struct {
	Attr   string
	Prefix string
}

// Schema is a value-configured NodeClassifier.
type Schema struct {
	SchemaName string
	Levels     []LevelRule
	Identifier []IDRule
}

var _ NodeClassifier = (*Schema)(nil)

// Name implements NodeClassifier.
func (s *Schema) Name() string { return s.SchemaName }

// Depth implements NodeClassifier.
func (s *Schema) Depth() int { return len(s.Levels) }

// Roots implements NodeClassifier.
func (s *Schema) Roots(doc *goquery.Selection) *goquery.Selection {
	return doc.Find(s.Levels[0].Node)
}

// Children implements NodeClassifier. Only direct children are returned so
// that blocks nested inside a child (hints, notes) are never mistaken for
// siblings.
func (s *Schema) Children(depth int, node *goquery.Selection) *goquery.Selection {
	if depth+1 >= len(s.Levels) {
		return node.Children().Slice(0, 0)
	}
	return node.ChildrenFiltered(s.Levels[depth+1].Node)
}

// Rule implements NodeClassifier.
func (s *Schema) Rule(depth int) LevelRule {
	if depth < 0 || depth >= len(s.Levels) {
		return LevelRule{}
	}
	return s.Levels[depth]
}

// IDRules implements NodeClassifier.
func (s *Schema) IDRules() []IDRule { return s.Identifier }

// Validate checks that every configured selector compiles and that the
// schema has at least one level and one identifier rule.
func (s *Schema) Validate() error {
	if strings.TrimSpace(s.SchemaName) == "" {
		return errors.New("schema name is empty")
	}
	if len(s.Levels) == 0 {
		return fmt.Errorf("schema %s: no levels", s.SchemaName)
	}
	if len(s.Identifier) == 0 {
		return fmt.Errorf("schema %s: no identifier rules", s.SchemaName)
	}
	for i, lvl := range s.Levels {
		fields := []struct {
			name     string
			sel      string
			optional bool
		}{
			{"node", lvl.Node, false},
			{"heading", lvl.Heading, false},
			{"text", lvl.Text, false},
			{"score", lvl.Score, false},
			{"alt text", lvl.AltText, true},
			{"instruction", lvl.Instruction, true},
		}
		for _, f := range fields {
			if f.sel == "" {
				if f.optional {
					continue
				}
				return fmt.Errorf("schema %s: level %d: %s selector is empty", s.SchemaName, i, f.name)
			}
			if _, err := cascadia.Compile(f.sel); err != nil {
				return fmt.Errorf("schema %s: level %d: %s selector %q: %w", s.SchemaName, i, f.name, f.sel, err)
			}
		}
	}
	for i, r := range s.Identifier {
		if r.Attr == "" || r.Prefix == "" {
			return fmt.Errorf("schema %s: identifier rule %d: attribute and prefix are required", s.SchemaName, i)
		}
	}
	return nil
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Schema{}
)

// Register adds a schema to the registry after validating it.
func Register(s *Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[s.SchemaName]; ok {
		return fmt.Errorf("schema %s already registered", s.SchemaName)
	}
	registry[s.SchemaName] = s
	return nil
}

// Lookup returns a registered schema by name.
func Lookup(name string) (*Schema, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown markup schema %q (known: %s)", name, strings.Join(namesLocked(), ", "))
	}
	return s, nil
}

// Names lists registered schema names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
