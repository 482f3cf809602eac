// Package generate talks to an OpenAI-compatible chat completions backend,
// streaming answer tokens as they arrive.
package generate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting for one generation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TokenFunc receives each streamed token. Returning an error aborts the
// stream.
type TokenFunc func(token string) error

// Generator produces answers from assembled chat messages.
type Generator interface {
	// Stream generates an answer token by token. Usage may be nil when the
	// backend does not report it.
	Stream(ctx context.Context, messages []Message, onToken TokenFunc) (*Usage, error)

	// Complete generates the full answer in one call.
	Complete(ctx context.Context, messages []Message) (string, *Usage, error)
}

// Config holds generation backend settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client is an OpenAI-compatible chat completions client using raw net/http.
// Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a generation client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	Temperature   *float64       `json:"temperature,omitempty"`
	MaxTokens     *int           `json:"max_tokens,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message      Message   `json:"message"`
	Delta        chatDelta `json:"delta"`
	FinishReason string    `json:"finish_reason"`
}

type chatDelta struct {
	Content string `json:"content"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, payload chatRequest) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return req, nil
}

func (c *Client) basePayload(messages []Message) chatRequest {
	payload := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
	}
	if c.cfg.Temperature > 0 {
		t := c.cfg.Temperature
		payload.Temperature = &t
	}
	if c.cfg.MaxTokens > 0 {
		m := c.cfg.MaxTokens
		payload.MaxTokens = &m
	}
	return payload
}

// Complete issues a non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, *Usage, error) {
	req, err := c.newRequest(ctx, c.basePayload(messages))
	if err != nil {
		return "", nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("generation backend returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", nil, fmt.Errorf("parse chat response: %w", err)
	}
	if chat.Error != nil {
		return "", nil, fmt.Errorf("generation backend error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return "", nil, fmt.Errorf("generation backend returned no choices")
	}

	return chat.Choices[0].Message.Content, chat.Usage, nil
}

// Stream issues a streaming chat completion, invoking onToken for each
// content delta. Cancelling ctx aborts the stream.
func (c *Client) Stream(ctx context.Context, messages []Message, onToken TokenFunc) (*Usage, error) {
	payload := c.basePayload(messages)
	payload.Stream = true
	payload.StreamOptions = &streamOptions{IncludeUsage: true}

	req, err := c.newRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generation backend returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var usage *Usage
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Tolerate malformed keep-alive chunks from permissive backends.
			continue
		}
		if chunk.Error != nil {
			return usage, fmt.Errorf("generation backend error: %s", chunk.Error.Message)
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onToken(choice.Delta.Content); err != nil {
				return usage, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return usage, fmt.Errorf("read chat stream: %w", err)
	}
	return usage, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
