// Package retrieval calls the document search backend and shapes its results
// for prompt assembly. Retrieval is strictly best-effort: a failing backend
// degrades the answer, it never fails the request.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Snippet is one retrieved slice of card documentation.
type Snippet struct {
	CardID       string  `json:"cardId"`
	SectionLabel string  `json:"sectionLabel"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
}

// SearchRequest is a single query against the search backend.
type SearchRequest struct {
	Query      string
	CardFilter string // canonical card id; empty searches all cards
	TopK       int
}

// SearchClient performs document search.
type SearchClient interface {
	Search(ctx context.Context, req SearchRequest) ([]Snippet, error)
}

// HTTPSearchClient talks to the search backend over its JSON API.
type HTTPSearchClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSearchClient creates a search client for the given backend.
func NewHTTPSearchClient(baseURL, apiKey string, timeout time.Duration) *HTTPSearchClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSearchClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type searchWireRequest struct {
	Query  string            `json:"query"`
	Filter map[string]string `json:"filter,omitempty"`
	TopK   int               `json:"top_k"`
}

type searchWireResult struct {
	CardID  string  `json:"card_id"`
	Section string  `json:"section"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

type searchWireResponse struct {
	Results []searchWireResult `json:"results"`
}

// Search issues one search call. It does not retry; the orchestrator treats
// any error as an empty result set.
func (c *HTTPSearchClient) Search(ctx context.Context, req SearchRequest) ([]Snippet, error) {
	wire := searchWireRequest{
		Query: req.Query,
		TopK:  req.TopK,
	}
	if req.CardFilter != "" {
		wire.Filter = map[string]string{"card_id": req.CardFilter}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search backend returned %d: %s", resp.StatusCode, string(data))
	}

	var wireResp searchWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wireResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	snippets := make([]Snippet, 0, len(wireResp.Results))
	for _, r := range wireResp.Results {
		snippets = append(snippets, Snippet{
			CardID:       r.CardID,
			SectionLabel: r.Section,
			Text:         r.Text,
			Score:        r.Score,
		})
	}
	return snippets, nil
}
