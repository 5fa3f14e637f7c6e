package iqapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mindcast/internal/pipeline"
)

// ErrNotFound marks a handle with no registered score.
var ErrNotFound = errors.New("handle not registered")

// Client queries the external score registry by verified X handle. The
// registry is unauthenticated and keyed only by handle; its results are
// clamped by the pipeline like every other tier.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup fetches the registered score for a handle. Returns
// pipeline.ErrUnconfigured when no registry endpoint is configured, so the
// orchestrator skips the tier instead of failing it.
func (c *Client) Lookup(ctx context.Context, handle string) (pipeline.AuthoritativeScore, error) {
	var out pipeline.AuthoritativeScore
	if c.baseURL == "" {
		return out, pipeline.ErrUnconfigured
	}
	if handle == "" {
		return out, errors.New("empty handle")
	}
	u := fmt.Sprintf("%s/api/iq/%s", c.baseURL, url.PathEscape(handle))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return out, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("iq api status %d", resp.StatusCode)
	}
	var raw struct {
		Score      *int `json:"iq"`
		Confidence int  `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	if raw.Score == nil {
		return out, fmt.Errorf("%w: missing score field", pipeline.ErrMalformed)
	}
	out.Score = *raw.Score
	out.Confidence = raw.Confidence
	return out, nil
}
