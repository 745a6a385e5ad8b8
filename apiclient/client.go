// Package apiclient is the authenticated HTTP client used for every backend call.
// It attaches the session's bearer token and transparently refreshes it on 401,
// queuing concurrent failures behind a single in-flight refresh.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/internal/metrics"
	"github.com/jrsteele09/vineyard-dashboard/notify"
	"github.com/rs/zerolog/log"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRefreshPath = "/auth/refresh-token"
	contentTypeJSON    = "application/json"
)

// Notifier receives user-visible failure notifications
type Notifier interface {
	Notify(kind notify.Kind, message string)
}

type discardNotifier struct{}

func (discardNotifier) Notify(notify.Kind, string) {}

// Client issues requests against the backend base URL. Refresh state is owned by
// the instance, so separate sessions (and tests) never share it.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      TokenStore
	refreshPath string
	headers     http.Header
	notifier    Notifier
	metrics     metrics.Recorder

	mu    sync.Mutex
	state refreshState
	queue []*pendingRequest
}

// ClientOption configures a Client
type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the transport level timeout applied to every request, the refresh call included
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithRefreshPath(path string) ClientOption {
	return func(c *Client) {
		c.refreshPath = path
	}
}

func WithNotifier(n Notifier) ClientOption {
	return func(c *Client) {
		c.notifier = n
	}
}

func WithMetrics(m metrics.Recorder) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHeader adds a default header sent on every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// New creates a Client for baseURL reading credentials from tokens
func New(baseURL string, tokens TokenStore, options ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: defaultTimeout},
		tokens:      tokens,
		refreshPath: defaultRefreshPath,
		headers:     defaultHeaders(),
		notifier:    discardNotifier{},
		metrics:     metrics.Noop{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// defaultHeaders mirrors the static CORS declaration the backend expects from browser clients.
// They are informational only; the backend enforces CORS itself.
func defaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", contentTypeJSON)
	h.Set("Accept", contentTypeJSON)
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
	return h
}

// CallOption adjusts a single call
type CallOption func(*request)

// Quiet suppresses the failure notification; the error is still returned
func Quiet() CallOption {
	return func(r *request) {
		r.quiet = true
	}
}

// NoRefresh returns a 401 to the caller instead of refreshing.
// Used for credential exchanges where 401 means bad credentials.
func NoRefresh() CallOption {
	return func(r *request) {
		r.noRefresh = true
	}
}

// FormFile is one file part of a multipart upload
type FormFile struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, opts ...CallOption) (json.RawMessage, error) {
	return c.do(ctx, newRequest(http.MethodGet, path, params, nil, "", opts))
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...CallOption) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodPost, path, body, opts)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts ...CallOption) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodPatch, path, body, opts)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...CallOption) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodPut, path, body, opts)
}

func (c *Client) Delete(ctx context.Context, path string, params url.Values, opts ...CallOption) (json.RawMessage, error) {
	return c.do(ctx, newRequest(http.MethodDelete, path, params, nil, "", opts))
}

// Upload posts a multipart form. The form is encoded once so the request can be replayed after a refresh.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, files []FormFile, opts ...CallOption) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("[Client Upload] write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.FieldName, f.FileName)
		if err != nil {
			return nil, fmt.Errorf("[Client Upload] create part %s: %w", f.FieldName, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("[Client Upload] copy %s: %w", f.FileName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("[Client Upload] close form: %w", err)
	}
	return c.do(ctx, newRequest(http.MethodPost, path, nil, buf.Bytes(), mw.FormDataContentType(), opts))
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, opts []CallOption) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("[Client %s] encode body for %s: %w", method, path, err)
		}
	}
	return c.do(ctx, newRequest(method, path, nil, payload, contentTypeJSON, opts))
}

// Decode unmarshals a raw response body into T
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("[apiclient Decode] %w", err)
	}
	return v, nil
}

// request is a replayable description of one call
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	quiet       bool
	noRefresh   bool
	retried     bool
}

func newRequest(method, path string, query url.Values, body []byte, contentType string, opts []CallOption) *request {
	r := &request{
		method:      method,
		path:        path,
		query:       query,
		body:        body,
		contentType: contentType,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// do sends req and applies the response-time failure handling
func (c *Client) do(ctx context.Context, req *request) (json.RawMessage, error) {
	body, status, err := c.send(ctx, req, "")
	if err != nil {
		c.notifyFailure(req, "Unable to reach the server, please check your connection")
		return nil, err
	}

	if status == http.StatusUnauthorized && !req.retried && !req.noRefresh && !c.isRefreshPath(req.path) {
		return c.handleUnauthorized(ctx, req)
	}

	if status < 200 || status > 299 {
		apiErr := &APIError{Method: req.method, Path: req.path, Status: status, Message: backendMessage(body)}
		c.notifyFailure(req, apiErr.UserMessage())
		return nil, apiErr
	}
	return body, nil
}

// send performs one HTTP exchange. bearer overrides the stored access token when set.
func (c *Client) send(ctx context.Context, req *request, bearer string) ([]byte, int, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, 0, fmt.Errorf("[Client send] build %s %s: %w", req.method, req.path, err)
	}
	for k, v := range c.headers {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	} else if req.body == nil {
		httpReq.Header.Del("Content-Type")
	}

	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	} else if token, ok := c.tokens.Token(); ok {
		token.SetAuthHeader(httpReq)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordRequest(req.method, 0, duration)
		log.Warn().Err(err).Str("method", req.method).Str("path", req.path).Msg("backend request failed")
		return nil, 0, fmt.Errorf("%w: %s %s: %w", apperrors.ErrNetwork, req.method, req.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.RecordRequest(req.method, resp.StatusCode, duration)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read %s %s: %w", apperrors.ErrNetwork, req.method, req.path, err)
	}

	log.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Bool("retried", req.retried).
		Msg("backend request")
	return data, resp.StatusCode, nil
}

func (c *Client) isRefreshPath(path string) bool {
	return path == c.refreshPath
}

func (c *Client) notifyFailure(req *request, message string) {
	if req.quiet {
		return
	}
	c.notifier.Notify(notify.KindError, message)
}
