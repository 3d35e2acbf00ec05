// Package decompose delegates epic-to-task decomposition to Anthropic's
// Messages API, passing the model's suggestions through to the caller
// without the core validating their structure beyond a bounded count
//.
package decompose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ginkoai/ginko/internal/errs"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-3-5-sonnet-latest"
	maxSuggestions   = 20
)

// Suggestion is one proposed task the model returned.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Client calls the Anthropic Messages API to decompose an epic's content
// into task suggestions. It is nil-safe: a Client constructed with an empty
// API key always returns errs.ErrAIServiceNotConfigured.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: anthropicBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = `You decompose a software epic into a short, ordered list of concrete
implementation tasks. Respond with strict JSON: a list of objects each
shaped {"title": string, "description": string}. Do not include any text
outside the JSON array.`

// Decompose asks the model to break epicContent into task suggestions.
func (c *Client) Decompose(ctx context.Context, epicTitle, epicContent string) ([]Suggestion, error) {
	if c == nil || c.apiKey == "" {
		return nil, errs.ErrAIServiceNotConfigured()
	}

	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: 2048,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: fmt.Sprintf("Epic: %s\n\n%s", epicTitle, epicContent)},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errs.ErrAIServiceError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.ErrAIServiceError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.ErrAIServiceError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.ErrAIServiceError(err)
	}
	if resp.StatusCode >= 300 {
		return nil, errs.ErrAIServiceError(fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, body))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errs.ErrAIServiceError(err)
	}
	if len(parsed.Content) == 0 {
		return nil, errs.ErrAIServiceError(fmt.Errorf("anthropic: empty response"))
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(parsed.Content[0].Text), &suggestions); err != nil {
		return nil, errs.ErrAIServiceError(fmt.Errorf("parse model output: %w", err))
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}
