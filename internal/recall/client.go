package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// Memory is one snippet returned by /recall.
type Memory struct {
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Similarity float64   `json:"similarity"`
}

// Query is the body of a /recall request. Start and End bound the memory
// timestamps when set.
type Query struct {
	UserID string     `json:"user_id"`
	Query  string     `json:"query"`
	TopK   int        `json:"top_k"`
	Start  *time.Time `json:"start_time,omitempty"`
	End    *time.Time `json:"end_time,omitempty"`
}

// RememberRequest is the body of a /remember request.
type RememberRequest struct {
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// None is the related_memories value for an empty result.
const None = "none"

// Client talks to the recall service.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a recall service client. A zero timeout uses 5s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Remember stores a snippet for the user.
func (c *Client) Remember(ctx context.Context, userID, text string, at time.Time) error {
	_, err := c.post(ctx, "/remember", RememberRequest{UserID: userID, Text: text, Timestamp: at.UTC()})
	return err
}

// Recall returns the snippets most related to q.Query, best first. An empty
// result is a nil slice, not an error.
func (c *Client) Recall(ctx context.Context, q Query) ([]Memory, error) {
	data, err := c.post(ctx, "/recall", q)
	if err != nil {
		return nil, err
	}
	return DecodeRelated(data)
}

// DecodeRelated parses a /recall response body. related_memories is either
// the string "none" or a list of memories.
func DecodeRelated(data []byte) ([]Memory, error) {
	var body struct {
		Related json.RawMessage `json:"related_memories"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decode recall response: %w", err)
	}
	if len(body.Related) == 0 {
		return nil, errors.New("decode recall response: missing related_memories")
	}

	var s string
	if err := json.Unmarshal(body.Related, &s); err == nil {
		if strings.EqualFold(strings.TrimSpace(s), None) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode recall response: unexpected value %q", s)
	}

	var mems []Memory
	if err := json.Unmarshal(body.Related, &mems); err != nil {
		return nil, fmt.Errorf("decode recall response: %w", err)
	}
	return mems, nil
}

// Healthy checks if the recall service is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, path string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return data, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}
