package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

// maxAnswerRunes caps the answer length sent to the grader.
const maxAnswerRunes = 10000

// PromptVariant represents a grading prompt variant.
type PromptVariant string

const (
	// PromptStrict grades only fully justified steps.
	PromptStrict PromptVariant = "strict"
	// PromptStandard is the default grading variant.
	PromptStandard PromptVariant = "standard"
	// PromptLenient gives partial credit generously.
	PromptLenient PromptVariant = "lenient"
)

var validVariants = map[PromptVariant]bool{
	PromptStrict:   true,
	PromptStandard: true,
	PromptLenient:  true,
}

var (
	loadOnce      sync.Once
	loadErr       error
	evalTemplates map[PromptVariant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[PromptVariant(v)]
}

// EvalData holds template data for evaluation prompts.
type EvalData struct {
	Subject      string
	ExamCode     string
	QuestionText string
	MaxPoints    int
	Answer       string
}

func load() error {
	loadOnce.Do(func() {
		evalTemplates = make(map[PromptVariant]*template.Template)
		for v := range validVariants {
			name := "templates/eval_" + string(v) + ".tmpl"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(v)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			evalTemplates[v] = tmpl
		}
	})
	return loadErr
}

// BuildEvalPrompt renders the evaluation prompt for the given variant.
// The answer is sanitized before it is placed in the prompt.
func BuildEvalPrompt(variant PromptVariant, data EvalData) (string, error) {
	if err := load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	tmpl, ok := evalTemplates[variant]
	if !ok {
		return "", fmt.Errorf("invalid prompt variant: %s", variant)
	}

	data.Answer = sanitizeAnswer(data.Answer)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeAnswer(answer string) string {
	answer = studentAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[Ei vastausta]"
	}

	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		runes = runes[:maxAnswerRunes]
		answer = string(runes) + "\n\n[Vastaus katkaistu pituuden vuoksi]"
	}

	return answer
}
