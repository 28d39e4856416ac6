package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appI18n "github.com/pavelanni/yoprep/internal/i18n"
	"github.com/pavelanni/yoprep/internal/llm"
	"github.com/pavelanni/yoprep/internal/llm/prompts"
	"github.com/pavelanni/yoprep/internal/model"
	"github.com/pavelanni/yoprep/internal/store"
)

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade one answer to a stored question and record the submission",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.String("db", "yoprep.db", "SQLite database path")
	f.Int64("question-id", 0, "Stored question ID (required)")
	f.String("student", "cli", "Student identifier")
	f.String("answer", "", "Answer text")
	f.String("answer-file", "", "Read the answer from a file (- for stdin)")
	addLLMFlags(f)
	f.StringP("lang", "l", "fi", "Feedback language for failure messages (fi, en)")
	addLogFlags(f)

	_ = cmd.MarkFlagRequired("question-id")
	cmd.MarkFlagsMutuallyExclusive("answer", "answer-file")

	return cmd
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	answer, err := readAnswer(cmd, v)
	if err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	q, err := db.GetQuestion(v.GetInt64("question-id"))
	if err != nil {
		return err
	}

	client, err := newLLMClient(v)
	if err != nil {
		return err
	}

	result := client.Evaluate(context.Background(), llm.EvaluationRequest{
		Subject:      q.Subject,
		ExamCode:     q.ExamCode,
		QuestionText: q.PromptText,
		MaxPoints:    q.TotalPoints,
		AnswerText:   answer,
	})

	sub, err := db.CreateSubmission(model.Submission{
		QuestionID: q.ID,
		StudentID:  v.GetString("student"),
		AnswerText: answer,
		AIGrade:    result.Grade,
		AIFeedback: result.Feedback,
		AIScore:    result.Score,
	})
	if err != nil {
		return fmt.Errorf("store submission: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sub)
}

func readAnswer(cmd *cobra.Command, v *viper.Viper) (string, error) {
	answer := v.GetString("answer")
	if path := v.GetString("answer-file"); path != "" {
		var data []byte
		var err error
		if path == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		answer = string(data)
	}
	if strings.TrimSpace(answer) == "" {
		return "", errors.New("answer is empty: pass --answer or --answer-file")
	}
	return answer, nil
}

// newLLMClient creates the grading client from config, falling back to
// the standard prompt variant on an unknown name.
func newLLMClient(v *viper.Viper) (*llm.Client, error) {
	variant := strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant")))
	if !prompts.IsValidVariant(variant) {
		slog.Warn("invalid prompt-variant, using standard", "variant", variant)
		variant = string(prompts.PromptStandard)
	}
	client, err := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"), variant)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	return client, nil
}
