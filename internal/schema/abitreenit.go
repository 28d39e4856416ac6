package schema

// AbitreenitName is the registry name of the YLE Abitreenit markup schema.
const AbitreenitName = "abitreenit"

// Abitreenit matches the exam pages published by YLE Abitreenit.
//
// Questions are .e-exam-question.e-level-0; their sub-questions are direct
// children carrying .e-exam-question.e-mrg-l-8 (indented one level).
// Numbering comes from data-toc-id="question-N" or id="question-nr-N".
var Abitreenit = &Schema{
	SchemaName: AbitreenitName,
	Levels: []LevelRule{
		{
			Node:        ".e-exam-question.e-level-0",
			Heading:     "h3.exam-question-title",
			Text:        "span[lang]",
			Score:       ".e-score",
			Instruction: ".exam-question-instruction",
		},
		{
			Node:    ".e-exam-question.e-mrg-l-8",
			Heading: "h4.exam-question-title",
			Text:    "span[lang]",
			Score:   ".e-score",
			AltText: ".e-screen-reader-only",
		},
	},
	Identifier: []IDRule{
		{Attr: "data-toc-id", Prefix: "question-"},
		{Attr: "id", Prefix: "question-nr-"},
	},
}

func init() {
	if err := Register(Abitreenit); err != nil {
		panic(err)
	}
}
