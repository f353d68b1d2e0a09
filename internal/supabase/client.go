// Package supabase implements the typed client for the hosted backend
// service: table CRUD over the REST endpoint, auth, and object storage.
//
// The base client carries only the project URL and anon key and is safe to
// share. Request-scoped auth never mutates it: WithSession returns a derived
// client holding the caller's token pair, and repositories pick up a
// per-request access token from the context, so concurrent requests cannot
// leak auth state into each other.
package supabase

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

	"quill/internal/models"
	"quill/internal/observability"
)

const defaultTimeout = 15 * time.Second

// Client is the handle to the remote backend service.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	session *models.TokenPair
}

// New creates a base client for the given project URL and anon key.
func New(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// WithSession returns a derived client that authenticates with the given
// token pair. The receiver is not modified.
func (c *Client) WithSession(pair models.TokenPair) *Client {
	derived := *c
	derived.session = &pair
	return &derived
}

// Session returns the token pair the client authenticates with, if any.
func (c *Client) Session() *models.TokenPair {
	return c.session
}

// BaseURL returns the project URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// accessToken picks the bearer token for a request: an explicit per-request
// token from the context wins, then the client's session, then the anon key.
func (c *Client) accessToken(ctx context.Context) string {
	if tok := AccessTokenFrom(ctx); tok != "" {
		return tok
	}
	if c.session != nil && c.session.AccessToken != "" {
		return c.session.AccessToken
	}
	return c.anonKey
}

// request describes one HTTP call against the backend.
type request struct {
	method  string
	path    string
	query   url.Values
	headers map[string]string
	body    io.Reader
	service string // metrics label: rest, auth, storage
}

// apiError is the error payload shape shared (loosely) by the backend's
// services. Fields are optional; whichever is present wins.
type apiError struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorField       string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Details          string `json:"details"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.Message, e.Msg, e.ErrorDescription, e.ErrorField} {
		if s != "" {
			return s
		}
	}
	return ""
}

// do executes a request and returns the status code, body, and headers.
// Transport-level failures are wrapped as BackendUnavailable; HTTP error
// statuses are returned to the caller for service-specific mapping.
func (c *Client) do(ctx context.Context, req request) (int, []byte, http.Header, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return 0, nil, nil, models.NewInternalError(err)
	}

	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken(ctx))
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	observability.BackendRequestLatency.
		WithLabelValues(req.service, req.method).
		Observe(time.Since(start).Seconds())
	if err != nil {
		observability.BackendErrors.WithLabelValues(req.service).Inc()
		return 0, nil, nil, models.NewBackendError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.BackendErrors.WithLabelValues(req.service).Inc()
		return 0, nil, nil, models.NewBackendError(err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		observability.BackendErrors.WithLabelValues(req.service).Inc()
	}

	return resp.StatusCode, body, resp.Header, nil
}

// doJSON executes a request with a JSON body and decodes a JSON response into
// dest (when dest is non-nil and the response has a body).
func (c *Client) doJSON(ctx context.Context, req request, payload, dest any) (int, []byte, http.Header, error) {
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, nil, models.NewInternalError(err)
		}
		req.body = bytes.NewReader(encoded)
		if req.headers == nil {
			req.headers = map[string]string{}
		}
		req.headers["Content-Type"] = "application/json"
	}

	status, body, header, err := c.do(ctx, req)
	if err != nil {
		return status, body, header, err
	}

	if dest != nil && status < http.StatusBadRequest && len(body) > 0 {
		if err := json.Unmarshal(body, dest); err != nil {
			return status, body, header, models.NewBackendError(
				fmt.Errorf("decoding %s response: %w", req.service, err))
		}
	}

	return status, body, header, nil
}

// decodeAPIError parses an error body into a readable message.
func decodeAPIError(status int, body []byte) error {
	var payload apiError
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := payload.text(); msg != "" {
			return fmt.Errorf("backend returned %d: %s", status, msg)
		}
	}
	return fmt.Errorf("backend returned %d", status)
}
