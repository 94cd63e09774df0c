package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
)

const (
	DefaultRefreshPath  = "/open/refresh"
	DefaultLoginPath    = "/open/login"
	DefaultRegisterPath = "/open/register"

	maxBodyBytes = 1 << 20
)

// Client talks to the backend's open (unauthenticated) credential endpoints.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	refreshPath  string
	loginPath    string
	registerPath string
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithPaths(login, register, refresh string) ClientOption {
	return func(cl *Client) {
		if login != "" {
			cl.loginPath = login
		}
		if register != "" {
			cl.registerPath = register
		}
		if refresh != "" {
			cl.refreshPath = refresh
		}
	}
}

func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   http.DefaultClient,
		refreshPath:  DefaultRefreshPath,
		loginPath:    DefaultLoginPath,
		registerPath: DefaultRegisterPath,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login exchanges email and password for an initial credential pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	pair, err := c.post(ctx, c.loginPath, LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("[authapi Login] %w", err)
	}
	if pair.RefreshToken == "" {
		return nil, fmt.Errorf("[authapi Login] %w: missing refreshToken", autherrors.ErrMalformedResponse)
	}
	return pair, nil
}

// Register creates a guest account and returns its initial credential pair.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	pair, err := c.post(ctx, c.registerPath, req)
	if err != nil {
		return nil, fmt.Errorf("[authapi Register] %w", err)
	}
	if pair.RefreshToken == "" {
		return nil, fmt.Errorf("[authapi Register] %w: missing refreshToken", autherrors.ErrMalformedResponse)
	}
	return pair, nil
}

// Refresh exchanges a refresh credential for a new access credential. The
// returned RefreshToken is empty unless the backend rotated it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := c.post(ctx, c.refreshPath, RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("[authapi Refresh] %w", err)
	}
	return pair, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*TokenPair, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%w: %d %s", autherrors.ErrUnexpectedStatus, resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("%w: %d", autherrors.ErrUnexpectedStatus, resp.StatusCode)
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(pair.AccessToken) == "" {
		return nil, fmt.Errorf("%w: missing accessToken", autherrors.ErrMalformedResponse)
	}
	return &pair, nil
}
