// Package estimateai suggests a three-point estimate for a task by asking
// an LLM, given the task's title/note and a short slice of historically
// similar completed tasks. It is strictly optional: callers choose whether
// to apply a suggestion via core.Task.UpdateRemaining, and the core engine
// never calls this package itself.
package estimateai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/emiller/scheduler/internal/core"
)

const defaultBaseURL = "https://api.openai.com/v1"

// HistoryEntry is one data point of "a similarly-titled task took this
// long", used to ground the suggestion in this user's own history.
type HistoryEntry struct {
	Title         string
	ActualMinutes float64
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client openai.Client
	model  string
}

// NewClient builds a Client for model, reading its API key from
// OPENAI_API_KEY. An empty baseURL uses the public OpenAI API; any other
// value targets an OpenAI-compatible endpoint instead (e.g. a local
// inference server).
func NewClient(model, baseURL string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("estimateai: model is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiKey := os.Getenv("OPENAI_API_KEY")

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
	return &Client{client: client, model: model}, nil
}

type suggestedEstimate struct {
	OptimisticMinutes  float64 `json:"optimistic_minutes"`
	MostLikelyMinutes  float64 `json:"most_likely_minutes"`
	PessimisticMinutes float64 `json:"pessimistic_minutes"`
	Reason             string  `json:"reason"`
}

// SuggestEstimate asks the model for a three-point estimate for a task
// titled title (with optional free-form note), given up to a few
// historically similar completed tasks for grounding. Returns the
// suggested estimate and the model's stated reasoning.
func (c *Client) SuggestEstimate(ctx context.Context, title, note string, history []HistoryEntry) (core.Estimate, string, error) {
	prompt := buildEstimatePrompt(title, note, history)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a careful software-project estimator. Respond with JSON only."),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return core.Estimate{}, "", fmt.Errorf("estimateai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.Estimate{}, "", fmt.Errorf("estimateai: no response choices returned")
	}

	content := resp.Choices[0].Message.Content
	var parsed suggestedEstimate
	if err := json.Unmarshal([]byte(extractJSON(content)), &parsed); err != nil {
		return core.Estimate{}, "", fmt.Errorf("estimateai: parsing response: %w (content: %s)", err, content)
	}

	estimate, err := core.NewEstimateFromMOP(
		minutesToDuration(parsed.MostLikelyMinutes),
		minutesToDuration(parsed.OptimisticMinutes),
		minutesToDuration(parsed.PessimisticMinutes),
	)
	if err != nil {
		return core.Estimate{}, "", fmt.Errorf("estimateai: model returned an invalid estimate: %w", err)
	}
	return estimate, parsed.Reason, nil
}

func buildEstimatePrompt(title, note string, history []HistoryEntry) string {
	var b strings.Builder
	b.WriteString("# Estimate Request\n\n")
	b.WriteString("Estimate the optimistic, most-likely and pessimistic time (in minutes) to complete this task.\n\n")
	b.WriteString("## Task\n")
	fmt.Fprintf(&b, "- **Title**: %s\n", title)
	if note != "" {
		fmt.Fprintf(&b, "- **Note**: %s\n", note)
	}

	if len(history) > 0 {
		b.WriteString("\n## Similarly Titled Completed Tasks\n")
		for i, h := range history {
			fmt.Fprintf(&b, "%d. **%s** — took %.0f minutes\n", i+1, h.Title, h.ActualMinutes)
		}
	}

	b.WriteString("\n## Response Format\n")
	b.WriteString("Respond with JSON only, no markdown fences, matching exactly:\n")
	b.WriteString(`{"optimistic_minutes": 30, "most_likely_minutes": 60, "pessimistic_minutes": 120, "reason": "why"}`)
	b.WriteString("\n")
	return b.String()
}

func minutesToDuration(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

// extractJSON returns the span from the first '{' to the last '}' of a
// possibly markdown-wrapped response, or s unchanged if there is none.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
