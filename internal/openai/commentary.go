package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultModel = "gpt-4"

const systemPrompt = `You are a concise rates strategist. You receive the latest values of a rates dashboard, one panel per line.
Write a short text-only commentary with these sections:

**Curve:** what the yield level and the 2s10s / 5s30s spreads say about steepening or flattening.
**Policy:** the SOFR-implied rate and how US policy diverges from the ECB and Canada.
**Real yields & equities:** one or two sentences.
**Recent moves:** the largest daily moves in basis points.

Guidelines:
- Only use the numbers given; never invent data
- Skip a section when its panels are unavailable or have no data
- No trading advice, no links
- At most 180 words`

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("no response from OpenAI")

// Commentator writes a short market commentary over dashboard summary lines.
type Commentator struct {
	cli   oa.Client
	model oa.ChatModel
}

func NewCommentator(apiKey string, opts ...option.RequestOption) *Commentator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Commentator{cli: oa.NewClient(opts...), model: defaultModel}
}

// Comment asks the model to comment on lines, as produced by Dashboard.Summary.
func (c *Commentator) Comment(ctx context.Context, lines []string) (string, error) {
	prompt := buildPrompt(lines)
	if prompt == "" {
		return "", errors.New("nothing to comment on")
	}
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: c.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(prompt),
		},
		MaxTokens: oa.Int(600),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildPrompt drops blank lines and caps each line so one panel cannot
// dominate the request.
func buildPrompt(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if len(l) > 500 {
			l = l[:500]
		}
		if b.Len() == 0 {
			b.WriteString("Latest dashboard values:\n")
		}
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}
