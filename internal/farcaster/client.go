package farcaster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"mindcast/internal/model"
)

// ErrNotFound marks a fid or username the hub API does not know.
var ErrNotFound = errors.New("farcaster user not found")

// Client defines the Farcaster API surface the pipeline consumes.
type Client interface {
	UserByUsername(ctx context.Context, username string) (model.User, error)
	RecentCasts(ctx context.Context, fid int64, limit int) ([]model.Cast, error)
	VerifiedAccounts(ctx context.Context, fid int64) ([]model.VerifiedAccount, error)
}

// HTTPClient is an api-key client for a Neynar-style Farcaster API.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewHTTPClient(apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:     "https://api.neynar.com/v2/farcaster",
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     newDefaultLimiter(),
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
	}
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

// UserByUsername resolves a username to user metadata including its fid.
func (c *HTTPClient) UserByUsername(ctx context.Context, username string) (model.User, error) {
	var out model.User
	if username == "" {
		return out, errors.New("empty username")
	}
	u := fmt.Sprintf("%s/user/by_username?username=%s", c.baseURL, url.QueryEscape(username))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return out, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return out, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("farcaster api status %d", resp.StatusCode)
	}
	var raw struct {
		User struct {
			FID         int64  `json:"fid"`
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
			Profile     struct {
				Bio struct {
					Text string `json:"text"`
				} `json:"bio"`
			} `json:"profile"`
			FollowerCount  int `json:"follower_count"`
			FollowingCount int `json:"following_count"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	out = model.User{
		FID:            raw.User.FID,
		Username:       raw.User.Username,
		DisplayName:    raw.User.DisplayName,
		Bio:            raw.User.Profile.Bio.Text,
		FollowerCount:  raw.User.FollowerCount,
		FollowingCount: raw.User.FollowingCount,
	}
	return out, nil
}

// RecentCasts returns up to limit recent original casts for a fid.
func (c *HTTPClient) RecentCasts(ctx context.Context, fid int64, limit int) ([]model.Cast, error) {
	u := fmt.Sprintf("%s/feed/user/casts?fid=%d&limit=%d&include_replies=false",
		c.baseURL, fid, clamp(limit, 1, 100))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("farcaster api status %d", resp.StatusCode)
	}
	var raw struct {
		Casts []struct {
			Hash      string    `json:"hash"`
			Text      string    `json:"text"`
			Timestamp time.Time `json:"timestamp"`
			Reactions struct {
				LikesCount   int `json:"likes_count"`
				RecastsCount int `json:"recasts_count"`
			} `json:"reactions"`
			Replies struct {
				Count int `json:"count"`
			} `json:"replies"`
		} `json:"casts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]model.Cast, 0, len(raw.Casts))
	for _, d := range raw.Casts {
		out = append(out, model.Cast{
			Hash:        d.Hash,
			FID:         fid,
			Text:        d.Text,
			Timestamp:   d.Timestamp,
			LikeCount:   d.Reactions.LikesCount,
			RecastCount: d.Reactions.RecastsCount,
			ReplyCount:  d.Replies.Count,
		})
	}
	return out, nil
}

// VerifiedAccounts returns the off-platform accounts verified for a fid.
func (c *HTTPClient) VerifiedAccounts(ctx context.Context, fid int64) ([]model.VerifiedAccount, error) {
	u := fmt.Sprintf("%s/user/verified_accounts?fid=%d", c.baseURL, fid)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("farcaster api status %d", resp.StatusCode)
	}
	var raw struct {
		VerifiedAccounts []struct {
			Platform string `json:"platform"`
			Username string `json:"username"`
		} `json:"verified_accounts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]model.VerifiedAccount, 0, len(raw.VerifiedAccounts))
	for _, d := range raw.VerifiedAccounts {
		out = append(out, model.VerifiedAccount{Platform: d.Platform, Handle: d.Username})
	}
	return out, nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// doWithRetry retries 429 and 5xx responses with jittered exponential
// backoff, honoring Retry-After.
func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				lastErr = fmt.Errorf("status %d", resp.StatusCode)
				if attempt == c.maxAttempts {
					break
				}
				wait := backoff
				if ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					} else if t, err := http.ParseTime(ra); err == nil {
						if d := time.Until(t); d > 0 {
							wait = d
						}
					}
				}
				// jitter +/-20%
				jitter := time.Duration(float64(wait) * 0.2)
				if jitter > 0 {
					wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
				}
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.maxAttempts, lastErr)
}
