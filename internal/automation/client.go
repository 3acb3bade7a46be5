// Package automation is the HTTP client for the external browser-automation
// worker. The worker owns every browser concern (cookie injection, selector
// probing, navigation); this service only ships it credential material and an
// action to replay.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pagepilot/action-server-go/internal/model"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type ExecuteParams struct {
	Cookies   string           `json:"cookies"`
	UserAgent string           `json:"userAgent"`
	Kind      model.ActionKind `json:"actionType"`
	TargetURL string           `json:"targetUrl"`
	Comment   string           `json:"comment,omitempty"`
}

// ExecuteResult is the worker's verdict on one attempt. A failed action is
// reported here, not as a transport error: Error carries the worker's
// human-readable reason ("Session expired or invalid", "Like button not
// found", ...).
type ExecuteResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message,omitempty"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMs int64  `json:"executionTimeMs"`
}

func (c *Client) Execute(ctx context.Context, params ExecuteParams) (*ExecuteResult, error) {
	var result ExecuteResult
	if err := c.post(ctx, "/actions/execute", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SessionInfo describes the account behind a cookie bundle.
type SessionInfo struct {
	Valid  bool   `json:"valid"`
	FBID   string `json:"fbId"`
	FBName string `json:"fbName"`
}

func (c *Client) ValidateSession(ctx context.Context, cookies, userAgent string) (*SessionInfo, error) {
	req := map[string]string{
		"cookies":   cookies,
		"userAgent": userAgent,
	}
	var info SessionInfo
	if err := c.post(ctx, "/sessions/validate", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// LoginResult is a fresh cookie bundle captured by the worker after a
// credential login.
type LoginResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	FBID      string `json:"fbId"`
	FBName    string `json:"fbName"`
	Cookies   string `json:"cookies"`
	UserAgent string `json:"userAgent"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	req := map[string]string{
		"email":    email,
		"password": password,
	}
	var result LoginResult
	if err := c.post(ctx, "/sessions/login", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("automation worker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("automation worker: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode worker response: %w", err)
	}

	return nil
}
