// Package gateway is the HTTP/JSON client for the backend auth gateway.
// All business logic and authorization live on the backend; this client
// only carries requests and cookies. Every call goes out with the shared
// cookie jar so the backend can set or clear its HTTP-only session cookie
// as a side channel parallel to the JSON body.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"campuspass/internal/session"
)

const requestTimeout = 15 * time.Second

// Client talks to the backend auth gateway. The base URL is injected at
// construction; there is no ambient backend address.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New builds a gateway client with its own cookie jar.
func New(baseURL string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: requestTimeout},
		logger:  logger,
	}, nil
}

// HTTPClient exposes the cookie-carrying HTTP client so sibling API
// clients (events, registrations) share the backend session cookie.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// BaseURL returns the injected backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ExchangeSession posts an opaque session_id from a provider redirect to
// the session-exchange endpoint and returns the resulting user record. The
// backend sets its session cookie as a side effect.
func (c *Client) ExchangeSession(ctx context.Context, sessionID string) (session.Session, error) {
	return c.postForSession(ctx, "/api/auth/session", map[string]string{"session_id": sessionID})
}

// ExchangeToken posts a provider access_token to the token-exchange
// endpoint and returns the resulting user record.
func (c *Client) ExchangeToken(ctx context.Context, accessToken string) (session.Session, error) {
	return c.postForSession(ctx, "/api/auth/token", map[string]string{"access_token": accessToken})
}

// Refresh renews the cookie-based backend session and returns the updated
// user record. The response wraps the record as {"user": ...}.
func (c *Client) Refresh(ctx context.Context) (session.Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		return session.Session{}, err
	}
	defer closeBody(resp)

	if err := c.checkStatus(resp); err != nil {
		return session.Session{}, asUnauthenticated(err)
	}

	var payload struct {
		User session.Session `json:"user"`
	}
	if err := decodeBody(resp, &payload); err != nil {
		return session.Session{}, &MalformedError{Endpoint: "/api/auth/refresh", Err: err}
	}
	if err := payload.User.Validate(); err != nil {
		return session.Session{}, &MalformedError{Endpoint: "/api/auth/refresh", Err: err}
	}
	return payload.User, nil
}

// Me asks the backend who the cookie-holder is.
func (c *Client) Me(ctx context.Context) (session.Session, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return session.Session{}, err
	}
	defer closeBody(resp)

	if err := c.checkStatus(resp); err != nil {
		return session.Session{}, asUnauthenticated(err)
	}
	return c.decodeSession(resp, "/api/auth/me")
}

// Logout asks the backend to destroy its session and clear the cookie.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	return asUnauthenticated(c.checkStatus(resp))
}

// SuperAdminLogin is the optional credentials-based login path that
// coexists with OAuth.
func (c *Client) SuperAdminLogin(ctx context.Context, email, password string) (session.Session, error) {
	return c.postForSession(ctx, "/api/auth/superadmin/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// TestLogin obtains a throwaway development session from the backend.
func (c *Client) TestLogin(ctx context.Context) (session.Session, error) {
	return c.postForSession(ctx, "/api/auth/test-login", nil)
}

func (c *Client) postForSession(ctx context.Context, endpoint string, body map[string]string) (session.Session, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return session.Session{}, fmt.Errorf("gateway: encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return session.Session{}, err
	}
	defer closeBody(resp)
	return c.sessionFromResponse(resp, endpoint)
}

func (c *Client) sessionFromResponse(resp *http.Response, endpoint string) (session.Session, error) {
	if err := c.checkStatus(resp); err != nil {
		return session.Session{}, err
	}
	return c.decodeSession(resp, endpoint)
}

func (c *Client) decodeSession(resp *http.Response, endpoint string) (session.Session, error) {
	var sess session.Session
	if err := decodeBody(resp, &sess); err != nil {
		return session.Session{}, &MalformedError{Endpoint: endpoint, Err: err}
	}
	if err := sess.Validate(); err != nil {
		return session.Session{}, &MalformedError{Endpoint: endpoint, Err: err}
	}
	return sess, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %s %s: %w", method, endpoint, err)
	}
	return resp, nil
}

// checkStatus maps a non-2xx response to a RejectedError, extracting the
// server-provided detail message when the body carries one.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail := resp.Status
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil && len(raw) > 0 {
		var body struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
			detail = body.Detail
		}
	}
	return &RejectedError{StatusCode: resp.StatusCode, Detail: detail}
}

func decodeBody(resp *http.Response, dst any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
