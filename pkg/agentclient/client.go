// Package agentclient is the agent-side SDK for the trust station and its
// gateways: it caches a clearance certificate, refreshes it on schedule or
// on demand, and drives actions through a gateway's HTTP surface. It
// generalizes pkg/client's functional-options Client and mutex-guarded
// bearer-token cache from a one-shot mTLS/Task-Token exchange to the
// repeated acquire/executeAction cycle of spec.md §4.10.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// refreshBuffer is the minimum remaining lifetime before a cached token is
// considered usable without a refresh (spec.md §4.10 "now + 30000ms < expiresAt").
const refreshBuffer = 30 * time.Second

// Token is a cached clearance certificate.
type Token struct {
	Value     string
	ExpiresAt time.Time
	Score     int
}

// ActionResult mirrors the gateway's {success,data}/{success:false,error}
// envelope (spec.md §4.5, §6).
type ActionResult struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchItem is one entry of an ExecuteBatch call.
type BatchItem struct {
	Name   string
	Params map[string]any
}

// Client is the agent-side SDK entry point.
type Client struct {
	stationBase string
	agentID     string
	apiKey      string
	httpClient  *http.Client

	mu    sync.Mutex
	token Token
	scope []string // nil = wildcard
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client that requests certificates for agentID from
// stationBase, authenticating with the developer apiKey.
func New(stationBase, agentID, apiKey string, opts ...Option) *Client {
	c := &Client{
		stationBase: stationBase,
		agentID:     agentID,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Acquire returns a valid clearance certificate, refreshing it when the
// cache is stale, the requested scope differs from the cached one, or
// forceRefresh is set (spec.md §4.10 "acquire").
func (c *Client) Acquire(ctx context.Context, forceRefresh bool, scope ScopeUpdate) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquireLocked(ctx, forceRefresh, scope)
}

func (c *Client) acquireLocked(ctx context.Context, forceRefresh bool, scope ScopeUpdate) (Token, error) {
	effective := scope.resolve(c.scope)

	fresh := !forceRefresh &&
		c.token.Value != "" &&
		time.Now().Add(refreshBuffer).Before(c.token.ExpiresAt) &&
		scopeEqual(effective, c.scope)
	if fresh {
		return c.token, nil
	}

	tok, err := c.fetchToken(ctx, effective)
	if err != nil {
		return Token{}, err
	}
	c.token = tok
	c.scope = effective
	return tok, nil
}

// SetScope updates the client's declared scope. If it differs from the
// current one, the cached token is discarded so the next Acquire fetches a
// certificate carrying the new scope (spec.md §4.10 "setScope").
func (c *Client) SetScope(scope ScopeUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	effective := scope.resolve(c.scope)
	if !scopeEqual(effective, c.scope) {
		c.scope = effective
		c.token = Token{}
	}
}

func (c *Client) fetchToken(ctx context.Context, scope []string) (Token, error) {
	reqBody := map[string]any{"agentId": c.agentID}
	if len(scope) > 0 {
		reqBody["scope"] = scope
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Token{}, fmt.Errorf("marshal certificate request: %w", err)
	}

	url := c.stationBase + "/certificates/request"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Token{}, fmt.Errorf("build certificate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("certificate request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Token{}, fmt.Errorf("read certificate response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Token{}, fmt.Errorf("station returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Token     string    `json:"token"`
			ExpiresAt time.Time `json:"expiresAt"`
			Score     int       `json:"score"`
		} `json:"data"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Token{}, fmt.Errorf("decode certificate response: %w", err)
	}
	if !envelope.Success {
		return Token{}, fmt.Errorf("station rejected certificate request: %s", envelope.Error)
	}

	return Token{Value: envelope.Data.Token, ExpiresAt: envelope.Data.ExpiresAt, Score: envelope.Data.Score}, nil
}

// ExecuteAction acquires a certificate and posts params to
// {gatewayURL}/actions/{name}. On a 401 it performs one forced refresh and
// retries exactly once, returning that retry's result verbatim (spec.md
// §4.10 "executeAction").
func (c *Client) ExecuteAction(ctx context.Context, gatewayURL, name string, params map[string]any) (ActionResult, error) {
	tok, err := c.Acquire(ctx, false, ScopeUnchanged)
	if err != nil {
		return ActionResult{}, err
	}

	result, status, err := c.postAction(ctx, gatewayURL, name, params, tok.Value)
	if err != nil {
		return ActionResult{}, err
	}
	if status != http.StatusUnauthorized {
		return result, nil
	}

	tok, err = c.Acquire(ctx, true, ScopeUnchanged)
	if err != nil {
		return ActionResult{}, err
	}
	result, _, err = c.postAction(ctx, gatewayURL, name, params, tok.Value)
	return result, err
}

func (c *Client) postAction(ctx context.Context, gatewayURL, name string, params map[string]any, token string) (ActionResult, int, error) {
	payload, err := json.Marshal(map[string]any{"params": params})
	if err != nil {
		return ActionResult{}, 0, fmt.Errorf("marshal action params: %w", err)
	}

	url := gatewayURL + "/actions/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return ActionResult{}, 0, fmt.Errorf("build action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ActionResult{}, 0, fmt.Errorf("action request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ActionResult{}, resp.StatusCode, fmt.Errorf("read action response: %w", err)
	}

	var result ActionResult
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return ActionResult{}, resp.StatusCode, fmt.Errorf("decode action response: %w", err)
		}
	}
	return result, resp.StatusCode, nil
}

// ExecuteBatch runs items sequentially against gatewayURL, stopping at the
// first result with Success=false (spec.md §4.10 "executeBatch").
func (c *Client) ExecuteBatch(ctx context.Context, gatewayURL string, items []BatchItem) ([]ActionResult, error) {
	results := make([]ActionResult, 0, len(items))
	for _, item := range items {
		result, err := c.ExecuteAction(ctx, gatewayURL, item.Name, item.Params)
		if err != nil {
			return results, err
		}
		results = append(results, result)
		if !result.Success {
			break
		}
	}
	return results, nil
}
