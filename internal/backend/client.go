package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TobiSchelling/LitReview/internal/config"
	"github.com/TobiSchelling/LitReview/internal/logger"
)

// Client talks to the literature-review API. Every call runs under its own
// deadline taken from the configured timeouts.
type Client struct {
	BaseURL  string
	timeouts config.Timeouts
	client   *http.Client
}

// NewClient creates a client. A nil httpClient gets a default one without a
// global timeout; deadlines come from the per-call context instead.
func NewClient(baseURL string, timeouts config.Timeouts, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		timeouts: timeouts,
		client:   httpClient,
	}
}

// Search runs a filtered paper search.
func (c *Client) Search(ctx context.Context, f Filter) (*SearchResult, error) {
	return call[SearchResult](ctx, c, c.timeouts.Default, http.MethodGet, "/api/search", f.query(), nil)
}

// DashboardStats fetches aggregate statistics for the filtered collection.
func (c *Client) DashboardStats(ctx context.Context, f Filter) (*DashboardStats, error) {
	return call[DashboardStats](ctx, c, c.timeouts.Default, http.MethodGet, "/api/dashboard/stats", f.query(), nil)
}

// Chat asks the analysis assistant one question.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return call[ChatResponse](ctx, c, c.timeouts.Chat, http.MethodPost, "/api/chat", nil, req)
}

// GenerateReview asks the backend for a fresh review draft.
func (c *Client) GenerateReview(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return call[GenerateResponse](ctx, c, c.timeouts.Generate, http.MethodPost, "/api/review/fast", nil, req)
}

// RefineReview rewrites a draft according to an instruction.
func (c *Client) RefineReview(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	return call[RefineResponse](ctx, c, c.timeouts.Refine, http.MethodPost, "/api/review/refine", nil, req)
}

// ExportReview renders a draft server-side.
func (c *Client) ExportReview(ctx context.Context, req ExportRequest) (*ExportResponse, error) {
	return call[ExportResponse](ctx, c, c.timeouts.Export, http.MethodPost, "/api/review/export", nil, req)
}

// PapersByIDs fetches reference records for the given ids.
func (c *Client) PapersByIDs(ctx context.Context, ids []string) ([]PaperBrief, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	resp, err := call[papersResponse](ctx, c, c.timeouts.Default, http.MethodGet, "/api/papers", q, nil)
	if err != nil {
		return nil, err
	}
	return resp.Papers, nil
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	resp, err := call[map[string]any](ctx, c, c.timeouts.Health, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return err
	}
	if status, _ := (*resp)["status"].(string); status != "ok" {
		return &TransportError{Status: http.StatusOK, Message: fmt.Sprintf("unexpected health status %q", status)}
	}
	return nil
}

func call[T any](ctx context.Context, c *Client, deadline time.Duration, method, path string, query url.Values, body any) (*T, error) {
	start := time.Now()
	out, err := Invoke(ctx, deadline, func(ctx context.Context) (*T, error) {
		var out T
		if err := c.do(ctx, method, path, query, body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	logger.Debug("backend call", "method", method, "path", path, "elapsed", time.Since(start).Round(time.Millisecond), "err", err)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Status: resp.StatusCode, Message: serverMessage(respBody, resp.Status)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &TransportError{Status: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

// serverMessage extracts the failure text from an error body. FastAPI puts
// it under "detail", which is either a string or a list of objects.
func serverMessage(body []byte, status string) string {
	var parsed struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.Detail) > 0 {
			var s string
			if json.Unmarshal(parsed.Detail, &s) == nil && s != "" {
				return s
			}
			var items []struct {
				Msg string `json:"msg"`
			}
			if json.Unmarshal(parsed.Detail, &items) == nil {
				var msgs []string
				for _, it := range items {
					if it.Msg != "" {
						msgs = append(msgs, it.Msg)
					}
				}
				if len(msgs) > 0 {
					return strings.Join(msgs, "; ")
				}
			}
		}
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}
	if r := []rune(text); len(r) > 200 {
		text = string(r[:200]) + "..."
	}
	return text
}
