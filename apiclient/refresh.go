package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/internal/metrics"
	"github.com/jrsteele09/vineyard-dashboard/notify"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

func (s refreshState) String() string {
	if s == stateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// pendingRequest is a request that hit 401 while a refresh was already in flight.
// done is buffered so the refreshing goroutine never blocks on an abandoned waiter.
type pendingRequest struct {
	ctx  context.Context
	req  *request
	done chan result
}

type result struct {
	body json.RawMessage
	err  error
}

// refreshResponse accepts the token pair either enveloped in metaData or at the top level
type refreshResponse struct {
	tokenPayload
	MetaData *tokenPayload `json:"metaData"`
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// handleUnauthorized runs the refresh state machine for a 401 on an ordinary request.
//
//	Idle       -> Refreshing: this request refreshes, replays itself, then replays the queue in FIFO order.
//	Refreshing -> Refreshing: this request is queued and waits for the outcome.
//
// On refresh failure the triggering request and every queued request are rejected with ErrRefreshFailed.
func (c *Client) handleUnauthorized(ctx context.Context, req *request) (json.RawMessage, error) {
	c.mu.Lock()
	if c.state == stateRefreshing {
		p := &pendingRequest{ctx: ctx, req: req, done: make(chan result, 1)}
		c.queue = append(c.queue, p)
		c.mu.Unlock()

		c.metrics.RecordQueued()
		log.Debug().Str("method", req.method).Str("path", req.path).Msg("request queued behind token refresh")

		select {
		case res := <-p.done:
			return res.body, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.state = stateRefreshing
	c.mu.Unlock()

	req.retried = true

	// The refresh serves every queued caller, so it must not die with this caller's context.
	// It is still bounded by the transport timeout.
	if err := c.refresh(context.WithoutCancel(ctx)); err != nil {
		c.metrics.RecordRefresh(metrics.RefreshFailure)
		refreshErr := fmt.Errorf("[Client refresh] %w: %w", apperrors.ErrRefreshFailed, err)

		for _, p := range c.finishRefresh() {
			p.done <- result{err: refreshErr}
		}
		if !req.quiet {
			c.notifier.Notify(notify.KindError, "Your session has expired, please log in again")
		}
		return nil, refreshErr
	}
	c.metrics.RecordRefresh(metrics.RefreshSuccess)

	body, err := c.do(ctx, req)
	c.drainQueue()
	return body, err
}

// drainQueue replays queued requests one at a time in enqueue order, then returns to Idle.
// Requests queued while draining are picked up by the same loop.
func (c *Client) drainQueue() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.state = stateIdle
			c.mu.Unlock()
			return
		}
		p := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.mu.Unlock()

		p.req.retried = true
		body, err := c.do(p.ctx, p.req)
		p.done <- result{body: body, err: err}
	}
}

// finishRefresh returns to Idle and hands back whatever was queued
func (c *Client) finishRefresh() []*pendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	queued := c.queue
	c.queue = nil
	c.state = stateIdle
	return queued
}

// refresh exchanges the stored refresh token for a new pair and persists it
func (c *Client) refresh(ctx context.Context) error {
	refreshToken, generation := c.storedRefreshToken()
	if refreshToken == "" {
		return errors.New("no refresh token stored")
	}

	req := &request{method: http.MethodPost, path: c.refreshPath, retried: true}
	body, status, err := c.send(ctx, req, refreshToken)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &APIError{Method: req.method, Path: req.path, Status: status, Message: backendMessage(body)}
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	pair := resp.tokenPayload
	if resp.MetaData != nil {
		pair = *resp.MetaData
	}
	if pair.AccessToken == "" {
		return errors.New("refresh response carried no access token")
	}

	token := &oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       AccessTokenExpiry(pair.AccessToken),
	}
	if store, ok := c.tokens.(generationalStore); ok {
		if !store.SetTokenIfGeneration(generation, token) {
			return errSessionReplaced
		}
	} else {
		c.tokens.SetToken(token)
	}

	event := log.Info().Str("path", c.refreshPath)
	if !token.Expiry.IsZero() {
		event = event.Dur("expires_in", time.Until(token.Expiry).Round(time.Second))
	}
	event.Msg("access token refreshed")
	return nil
}

// generationalStore is a TokenStore that can detect a logout or new login racing a refresh
type generationalStore interface {
	RefreshTokenGeneration() (string, uint64)
	SetTokenIfGeneration(generation uint64, token *oauth2.Token) bool
}

var _ generationalStore = (*StorageTokens)(nil)

// errSessionReplaced fails a refresh whose session was logged out or logged in again meanwhile
var errSessionReplaced = errors.New("session tokens replaced while refreshing")

func (c *Client) storedRefreshToken() (string, uint64) {
	if store, ok := c.tokens.(generationalStore); ok {
		return store.RefreshTokenGeneration()
	}
	if token, ok := c.tokens.Token(); ok {
		return token.RefreshToken, 0
	}
	return "", 0
}
