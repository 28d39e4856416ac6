package parser

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pavelanni/yoprep/internal/model"
	"github.com/pavelanni/yoprep/internal/schema"
)

var testMeta = model.ExamMeta{
	ExamCode:     "pmat_k2025",
	Subject:      "matematiikka_pitka",
	Year:         2025,
	IsSpringExam: true,
}

func newTestParser(t *testing.T) (*Parser, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(schema.Abitreenit, WithLogger(logger)), &logs
}

func parseString(t *testing.T, markup string) Result {
	t.Helper()
	p, _ := newTestParser(t)
	res, err := p.ParseReader(strings.NewReader(markup), "", testMeta)
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	return res
}

func TestParseFileGolden(t *testing.T) {
	p, _ := newTestParser(t)
	got, err := p.ToJSON(filepath.Join("testdata", "pmat_k2025.html"), "utf-8", testMeta)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	want, err := os.ReadFile(filepath.Join("testdata", "pmat_k2025.golden.json"))
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("JSON mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}

	again, err := p.ToJSON(filepath.Join("testdata", "pmat_k2025.html"), "utf-8", testMeta)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !bytes.Equal(got, again) {
		t.Error("parsing the same input twice produced different JSON")
	}
}

func TestParseFileDiagnostics(t *testing.T) {
	p, _ := newTestParser(t)
	res, err := p.ParseFile(filepath.Join("testdata", "pmat_k2025.html"), "", testMeta)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := Diagnostics{QuestionNodes: 3, DroppedQuestions: 1, PartNodes: 3, DroppedParts: 1}
	if res.Diagnostics != want {
		t.Errorf("Diagnostics = %+v, want %+v", res.Diagnostics, want)
	}
	if !res.Diagnostics.Partial() {
		t.Error("expected partial extraction")
	}
}

func TestConcreteScenario(t *testing.T) {
	res := parseString(t, `
<div class="e-exam-question e-level-0" data-toc-id="question-1">
  <h3 class="exam-question-title"><span lang="fi">Derivoi funktio</span><span class="e-score">6 p.</span></h3>
  <div class="e-exam-question e-mrg-l-8" id="question-nr-1.1">
    <h4 class="exam-question-title"><span lang="fi">Laske f'(2)</span><span class="e-score">3 p.</span></h4>
  </div>
</div>`)

	if len(res.Document.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(res.Document.Questions))
	}
	q := res.Document.Questions[0]
	if q.Number != "1" || q.Title != "Derivoi funktio" || q.TotalPoints != 6 {
		t.Errorf("question = %+v", q)
	}
	wantParts := []model.Part{{Number: "1.1", Text: "Laske f'(2)", Points: 3}}
	if len(q.Parts) != 1 || q.Parts[0] != wantParts[0] {
		t.Errorf("parts = %+v, want %+v", q.Parts, wantParts)
	}
}

func TestUnresolvedQuestionIsAbsent(t *testing.T) {
	p, logs := newTestParser(t)
	res, err := p.ParseReader(strings.NewReader(`
<div class="e-exam-question e-level-0">
  <h3 class="exam-question-title"><span lang="fi">Nimetön</span><span class="e-score">6 p.</span></h3>
</div>`), "", testMeta)
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if res.Document.Questions == nil {
		t.Fatal("Questions should be an empty slice, not nil")
	}
	if len(res.Document.Questions) != 0 {
		t.Errorf("expected no questions, got %d", len(res.Document.Questions))
	}
	if res.Diagnostics.DroppedQuestions != 1 {
		t.Errorf("DroppedQuestions = %d, want 1", res.Diagnostics.DroppedQuestions)
	}
	if !strings.Contains(logs.String(), "dropping question node") {
		t.Errorf("expected drop to be logged, logs:\n%s", logs.String())
	}
}

func TestQuestionCountAndOrder(t *testing.T) {
	var sb strings.Builder
	ids := []string{"3", "1", "10", "2", "2"}
	for _, id := range ids {
		sb.WriteString(`<div class="e-exam-question e-level-0" id="question-nr-` + id + `"></div>`)
	}
	res := parseString(t, sb.String())

	if len(res.Document.Questions) != len(ids) {
		t.Fatalf("expected %d questions, got %d", len(ids), len(res.Document.Questions))
	}
	for i, id := range ids {
		if got := res.Document.Questions[i].Number; got != id {
			t.Errorf("question %d number = %q, want %q", i, got, id)
		}
	}
}

func TestUnresolvedPartKeepsSiblingOrder(t *testing.T) {
	res := parseString(t, `
<div class="e-exam-question e-level-0" id="question-nr-4">
  <div class="e-exam-question e-mrg-l-8" id="question-nr-4.1"></div>
  <div class="e-exam-question e-mrg-l-8" id="not-a-question"></div>
  <div class="e-exam-question e-mrg-l-8" id="question-nr-4.3"></div>
</div>`)

	parts := res.Document.Questions[0].Parts
	var numbers []string
	for _, p := range parts {
		numbers = append(numbers, p.Number)
	}
	if strings.Join(numbers, ",") != "4.1,4.3" {
		t.Errorf("part numbers = %v, want [4.1 4.3]", numbers)
	}
	if res.Diagnostics.PartNodes != 3 || res.Diagnostics.DroppedParts != 1 {
		t.Errorf("Diagnostics = %+v", res.Diagnostics)
	}
}

func TestNestedBlocksAreNotParts(t *testing.T) {
	res := parseString(t, `
<div class="e-exam-question e-level-0" id="question-nr-5">
  <div class="e-exam-question e-mrg-l-8" id="question-nr-5.1">
    <div class="e-note">
      <div class="e-exam-question e-mrg-l-8" id="question-nr-5.1.a"></div>
    </div>
  </div>
  <section>
    <div class="e-exam-question e-mrg-l-8" id="question-nr-5.x"></div>
  </section>
</div>`)

	parts := res.Document.Questions[0].Parts
	if len(parts) != 1 || parts[0].Number != "5.1" {
		t.Errorf("parts = %+v, want only 5.1", parts)
	}
}

func TestPartText(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		want  model.Part
	}{
		{
			name:  "no heading",
			inner: `<p>ei otsikkoa</p>`,
			want:  model.Part{Number: "6.1"},
		},
		{
			name:  "alt text appended",
			inner: `<h4 class="exam-question-title"><span lang="fi">Sievennä</span><span class="e-screen-reader-only">(a+b)^2</span><span class="e-score">2 p.</span></h4>`,
			want:  model.Part{Number: "6.1", Text: "Sievennä (a+b)^2", Points: 2},
		},
		{
			name:  "alt text only",
			inner: `<h4 class="exam-question-title"><span class="e-screen-reader-only">kuva</span></h4>`,
			want:  model.Part{Number: "6.1", Text: "kuva"},
		},
		{
			name:  "score marker without digits",
			inner: `<h4 class="exam-question-title"><span lang="fi">Perustele</span><span class="e-score">p.</span></h4>`,
			want:  model.Part{Number: "6.1", Text: "Perustele"},
		},
		{
			name:  "whitespace collapsed",
			inner: `<h4 class="exam-question-title"><span lang="fi">  Laske
			  arvo  </span><span class="e-score">4&nbsp;p.</span></h4>`,
			want: model.Part{Number: "6.1", Text: "Laske arvo", Points: 4},
		},
		{
			name:  "line break separates words",
			inner: `<h4 class="exam-question-title"><span lang="fi">Laske<br>arvo</span><span class="e-score">1 p.</span></h4>`,
			want:  model.Part{Number: "6.1", Text: "Laske arvo", Points: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseString(t, `<div class="e-exam-question e-level-0" id="question-nr-6">`+
				`<div class="e-exam-question e-mrg-l-8" id="question-nr-6.1">`+tt.inner+`</div></div>`)
			parts := res.Document.Questions[0].Parts
			if len(parts) != 1 {
				t.Fatalf("expected 1 part, got %d", len(parts))
			}
			if parts[0] != tt.want {
				t.Errorf("part = %+v, want %+v", parts[0], tt.want)
			}
		})
	}
}

func TestInstructionText(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		want  string
	}{
		{"paragraphs", `<p>Lue aineisto.</p><p>Vastaa kysymyksiin.</p>`, "Lue aineisto. Vastaa kysymyksiin."},
		{"line break", `Lue<br>aineisto.`, "Lue aineisto."},
		{"list items", `<ul><li>a</li><li>b</li></ul>`, "a b"},
		{"inline elements join", `<b>Lue</b><i>kaikki</i>`, "Luekaikki"},
		{"script ignored", `Lue<script>var x = 1;</script> aineisto.`, "Lue aineisto."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseString(t, `<div class="e-exam-question e-level-0" id="question-nr-8">`+
				`<div class="exam-question-instruction">`+tt.inner+`</div></div>`)
			if got := res.Document.Questions[0].InstructionText; got != tt.want {
				t.Errorf("InstructionText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuestionWithoutHeading(t *testing.T) {
	res := parseString(t, `
<div class="e-exam-question e-level-0" id="question-nr-7">
  <div class="exam-question-instruction">Lue aineisto.</div>
</div>`)
	q := res.Document.Questions[0]
	if q.Title != "" || q.TotalPoints != 0 {
		t.Errorf("expected empty title and zero points, got %+v", q)
	}
	if q.InstructionText != "Lue aineisto." {
		t.Errorf("InstructionText = %q", q.InstructionText)
	}
}

func TestEmptyDocumentWarns(t *testing.T) {
	p, logs := newTestParser(t)
	res, err := p.ParseReader(strings.NewReader(`<html><body><p>Ei kysymyksiä</p></body></html>`), "", testMeta)
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(res.Document.Questions) != 0 {
		t.Errorf("expected no questions, got %d", len(res.Document.Questions))
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("expected a warning for an empty result, logs:\n%s", logs.String())
	}
}

func TestMalformedMarkup(t *testing.T) {
	res := parseString(t, `<div class="e-exam-question e-level-0" id="question-nr-8"><h3 class="exam-question-title"><span class="e-score">4 p.`)
	if len(res.Document.Questions) != 1 {
		t.Fatalf("expected 1 question from malformed markup, got %d", len(res.Document.Questions))
	}
	q := res.Document.Questions[0]
	if q.Number != "8" || q.TotalPoints != 4 {
		t.Errorf("question = %+v", q)
	}
}

func TestLoadDeclaredEncoding(t *testing.T) {
	// "Tehtävä" in ISO-8859-1.
	latin1 := []byte("<span lang=\"fi\">Teht\xe4v\xe4</span>")
	doc, err := Load(bytes.NewReader(latin1), "iso-8859-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := doc.Find("span[lang]").Text(); got != "Tehtävä" {
		t.Errorf("decoded text = %q, want %q", got, "Tehtävä")
	}
}

func TestLoadUnknownEncoding(t *testing.T) {
	_, err := Load(strings.NewReader("<p>x</p>"), "klingon-8")
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SourceError, got %T", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestLoadReadFailure(t *testing.T) {
	_, err := Load(failingReader{}, "")
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SourceError, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected wrapped ErrUnexpectedEOF, got %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.html")
	p, _ := newTestParser(t)
	_, err := p.ParseFile(path, "", testMeta)
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SourceError, got %v", err)
	}
	if se.Path != path {
		t.Errorf("Path = %q, want %q", se.Path, path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestParseConcurrent(t *testing.T) {
	p, _ := newTestParser(t)
	want, err := p.ToJSON(filepath.Join("testdata", "pmat_k2025.html"), "", testMeta)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.ToJSON(filepath.Join("testdata", "pmat_k2025.html"), "", testMeta)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(got, want) {
				errs <- errors.New("concurrent parse produced different output")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestExtractQuestionsNilDiagnostics(t *testing.T) {
	doc, err := Load(strings.NewReader(`<div class="e-exam-question e-level-0" id="question-nr-1"></div>`+
		`<div class="e-exam-question e-level-0"></div>`), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, _ := newTestParser(t)
	qs := p.ExtractQuestions(doc.Selection, nil)
	if len(qs) != 1 || qs[0].Number != "1" {
		t.Errorf("questions = %+v", qs)
	}
}
