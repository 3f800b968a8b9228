// Package client is a Go client for the chess server: a fasthttp
// facade over the REST endpoints and a websocket wrapper for the live
// game protocol.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/graceteusch/chess/internal/store"
)

// Facade issues REST calls against one server. The auth token captured
// by Register or Login is attached to every later request.
type Facade struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int

	authToken string
	username  string
}

type Option func(*Facade)

func WithTimeout(d time.Duration) Option {
	return func(c *Facade) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Facade) { c.http.MaxConnsPerHost = n }
}

func WithRetry(max int) Option {
	return func(c *Facade) { c.retryMax = max }
}

func NewFacade(baseURL string, opts ...Option) *Facade {
	c := &Facade{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthToken returns the token captured by the last Register or Login.
func (c *Facade) AuthToken() string { return c.authToken }

// Username returns the name of the logged-in user, if any.
func (c *Facade) Username() string { return c.username }

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionReply struct {
	Username  string `json:"username"`
	AuthToken string `json:"authToken"`
}

type createGameRequest struct {
	GameName string `json:"gameName"`
}

type createGameReply struct {
	GameID int64 `json:"gameID"`
}

type joinGameRequest struct {
	GameID      int64  `json:"gameID"`
	PlayerColor string `json:"playerColor"`
}

type listGamesReply struct {
	Games []*store.GameRecord `json:"games"`
}

func (c *Facade) Register(ctx context.Context, username, password string) error {
	var reply sessionReply
	err := c.doJSON(ctx, fasthttp.MethodPost, "/user", credentials{Username: username, Password: password}, &reply, false)
	if err != nil {
		return err
	}
	c.username = reply.Username
	c.authToken = reply.AuthToken
	return nil
}

func (c *Facade) Login(ctx context.Context, username, password string) error {
	var reply sessionReply
	err := c.doJSON(ctx, fasthttp.MethodPost, "/session", credentials{Username: username, Password: password}, &reply, false)
	if err != nil {
		return err
	}
	c.username = reply.Username
	c.authToken = reply.AuthToken
	return nil
}

func (c *Facade) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, fasthttp.MethodDelete, "/session", nil, nil, false); err != nil {
		return err
	}
	c.authToken = ""
	c.username = ""
	return nil
}

func (c *Facade) CreateGame(ctx context.Context, name string) (int64, error) {
	var reply createGameReply
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/game", createGameRequest{GameName: name}, &reply, false); err != nil {
		return 0, err
	}
	return reply.GameID, nil
}

func (c *Facade) JoinGame(ctx context.Context, gameID int64, color string) (*store.GameRecord, error) {
	var rec store.GameRecord
	err := c.doJSON(ctx, fasthttp.MethodPut, "/game", joinGameRequest{GameID: gameID, PlayerColor: color}, &rec, false)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Facade) ListGames(ctx context.Context) ([]*store.GameRecord, error) {
	var reply listGamesReply
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/game", nil, &reply, true); err != nil {
		return nil, err
	}
	return reply.Games, nil
}

// BoardPNG fetches the rendered board snapshot for a game.
func (c *Facade) BoardPNG(ctx context.Context, gameID int64) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(fmt.Sprintf("%s/game/%d/board.png", c.baseURL, gameID))
	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("chess api error: status=%d", resp.StatusCode())
	}
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

func (c *Facade) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("chess api error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if attempt == attempts || !shouldRetryStatus(status) {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Facade) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
