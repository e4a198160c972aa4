package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yourname/habitcoach/internal"
)

// Generator produces coaching text from a prompt and a system
// instruction. A failure is never fatal to callers; they substitute
// deterministic fallback text instead.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

const defaultSystem = "You are a habit-building coach. Give short, realistic, actionable advice. " +
	"Be supportive, not generic motivational spam. Keep responses under 80 words."

// Client talks to an OpenAI-compatible chat completion endpoint.
// The HTTP client enforces the latency bound; no retries.
type Client struct {
	url        string
	key        string
	model      string
	httpClient *http.Client
	logger     internal.Logger
}

func NewClient(url, key, model string, logger internal.Logger) *Client {
	return &Client{
		url:        url,
		key:        key,
		model:      model,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	if c.url == "" {
		return "", errors.New("ai: generator is not configured")
	}
	if system == "" {
		system = defaultSystem
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("ai: request failed: %v", err)
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Errorf("ai: endpoint returned %d", resp.StatusCode)
		return "", fmt.Errorf("ai: endpoint returned %d", resp.StatusCode)
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Errorf("ai: failed to decode response: %v", err)
		return "", err
	}
	if len(body.Choices) == 0 || strings.TrimSpace(body.Choices[0].Message.Content) == "" {
		return "", errors.New("ai: empty response")
	}
	return strings.TrimSpace(body.Choices[0].Message.Content), nil
}

var _ Generator = (*Client)(nil)
