package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Entry is one vector with its metadata, ready for upsert.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata map[string]interface{}
}

// Match is one query hit.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]interface{}
}

// Client is a minimal REST client to a Pinecone index. All requests go to
// the index host, scoped to one namespace.
type Client struct {
	indexHost  string
	apiKey     string
	namespace  string
	httpClient *http.Client
}

type Config struct {
	IndexHost string
	APIKey    string
	Namespace string
	Timeout   time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		indexHost:  strings.TrimRight(cfg.IndexHost, "/"),
		apiKey:     cfg.APIKey,
		namespace:  cfg.Namespace,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upsert writes all entries in one request. The index either accepts the
// whole batch or rejects it.
func (c *Client) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	vectors := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		vectors[i] = map[string]interface{}{
			"id":       e.ID,
			"values":   e.Vector,
			"metadata": e.Metadata,
		}
	}
	body := map[string]interface{}{
		"vectors":   vectors,
		"namespace": c.namespace,
	}
	return c.postJSON(ctx, "/vectors/upsert", body, nil)
}

// Query returns the topK nearest entries, optionally restricted by a
// Pinecone metadata filter.
func (c *Client) Query(ctx context.Context, vector []float32, topK int, filter map[string]interface{}) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]interface{}{
		"vector":          vector,
		"topK":            topK,
		"namespace":       c.namespace,
		"includeMetadata": true,
	}
	if len(filter) > 0 {
		body["filter"] = filter
	}

	var resp struct {
		Matches []struct {
			ID       string                 `json:"id"`
			Score    float64                `json:"score"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"matches"`
	}
	if err := c.postJSON(ctx, "/query", body, &resp); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

// DeleteByFileID removes every vector whose db_file_id metadata matches.
func (c *Client) DeleteByFileID(ctx context.Context, dbFileID uint) error {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"db_file_id": map[string]interface{}{"$eq": float64(dbFileID)},
		},
		"namespace": c.namespace,
	}
	return c.postJSON(ctx, "/vectors/delete", body, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal vector index request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexHost+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build vector index request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vector index request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read vector index response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("vector index response status %d: %s", resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse vector index json failed: %w", err)
		}
	}
	return nil
}
