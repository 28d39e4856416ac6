package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/yoprep/internal/i18n"
	"github.com/pavelanni/yoprep/internal/llm/prompts"
)

// UnknownGrade is reported when the grader could not produce a verdict.
const UnknownGrade = "?"

// EvaluationRequest is everything the grader needs to judge one answer.
type EvaluationRequest struct {
	Subject      string
	ExamCode     string
	QuestionText string
	MaxPoints    int
	AnswerText   string
}

// EvaluationResult holds the grader's verdict on one answer.
type EvaluationResult struct {
	Grade    string `json:"grade"`
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.PromptVariant
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName, variant string) (*Client, error) {
	if !prompts.IsValidVariant(variant) {
		return nil, fmt.Errorf("invalid prompt variant %q", variant)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: prompts.PromptVariant(variant),
	}, nil
}

// Ping checks that the endpoint answers by listing models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Evaluate grades an answer. It never fails: API and decoding errors are
// logged and turned into an UnknownGrade result with localized feedback.
func (c *Client) Evaluate(ctx context.Context, req EvaluationRequest) EvaluationResult {
	res, err := c.evaluate(ctx, req)
	if err == nil {
		return res
	}
	slog.Error("answer evaluation failed", "exam_code", req.ExamCode, "error", err)
	var perr *parseError
	if errors.As(err, &perr) {
		return EvaluationResult{Grade: UnknownGrade, Feedback: i18n.T(ctx, "EvaluationParseFailed")}
	}
	return EvaluationResult{
		Grade:    UnknownGrade,
		Feedback: i18n.Td(ctx, "EvaluationFailed", map[string]any{"Error": err.Error()}),
	}
}

func (c *Client) evaluate(ctx context.Context, req EvaluationRequest) (EvaluationResult, error) {
	prompt, err := prompts.BuildEvalPrompt(c.variant, prompts.EvalData{
		Subject:      req.Subject,
		ExamCode:     req.ExamCode,
		QuestionText: req.QuestionText,
		MaxPoints:    req.MaxPoints,
		Answer:       req.AnswerText,
	})
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   1024,
		Temperature: 0.1,
	})
	if err != nil {
		return EvaluationResult{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return EvaluationResult{}, &parseError{raw: "", err: errors.New("LLM returned no choices")}
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	result, err := parseResult(raw)
	if err != nil {
		return EvaluationResult{}, err
	}
	result.Score = max(result.Score, 0)
	if req.MaxPoints > 0 {
		result.Score = min(result.Score, req.MaxPoints)
	}
	return result, nil
}

type parseError struct {
	raw string
	err error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("parse LLM response: %v (raw: %s)", e.err, e.raw)
}

func (e *parseError) Unwrap() error { return e.err }

// parseResult decodes the grader's JSON reply. Replies wrapped in a
// markdown code fence are cut down to the outermost braces first.
func parseResult(raw string) (EvaluationResult, error) {
	text := strings.TrimSpace(raw)
	if strings.Contains(text, "```") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end < start {
			return EvaluationResult{}, &parseError{raw: raw, err: errors.New("no JSON object in fenced reply")}
		}
		text = text[start : end+1]
	}

	var reply struct {
		Grade    *string  `json:"grade"`
		Feedback *string  `json:"feedback"`
		Score    *float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return EvaluationResult{}, &parseError{raw: raw, err: err}
	}
	if reply.Grade == nil || reply.Feedback == nil || reply.Score == nil {
		return EvaluationResult{}, &parseError{raw: raw, err: errors.New("missing grade, feedback or score")}
	}
	return EvaluationResult{
		Grade:    *reply.Grade,
		Feedback: *reply.Feedback,
		Score:    int(*reply.Score),
	}, nil
}
