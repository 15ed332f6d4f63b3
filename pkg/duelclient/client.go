// Package duelclient is a Go client for the game API plus the polling loop
// that keeps a local copy of a game in sync.
package duelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error types returned by the server in error_type
const (
	ErrorTypeNotFound            = "not_found"
	ErrorTypeForbidden           = "forbidden"
	ErrorTypeValidation          = "validation"
	ErrorTypeInvalidState        = "invalid_state"
	ErrorTypeNotJoinable         = "not_joinable"
	ErrorTypeGameFull            = "game_full"
	ErrorTypeNotReady            = "not_ready"
	ErrorTypeAlreadyAnswered     = "already_answered"
	ErrorTypeNoActiveQuestion    = "no_active_question"
	ErrorTypeTimeExpired         = "time_expired"
	ErrorTypeSupplierUnavailable = "supplier_unavailable"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	// RetryAfter is parsed from the Retry-After header, zero when absent
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("duelclient: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("duelclient: %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether err is worth retrying: 503/429 responses,
// 5xx server errors and transport failures. Context cancellation is not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// IsErrorType reports whether err is an APIError of the given error_type.
func IsErrorType(err error, errorType string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == errorType
}

// Client calls the game API on behalf of one authenticated user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client. baseURL is the server root, e.g. "https://api.example.com".
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateGame creates a waiting game owned by the caller.
func (c *Client) CreateGame(ctx context.Context, params CreateGameParams) (*Game, error) {
	var game Game
	if err := c.do(ctx, http.MethodPost, "/api/games", params, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// GetGame returns the current snapshot.
func (c *Client) GetGame(ctx context.Context, code string) (*Game, error) {
	var game Game
	if err := c.do(ctx, http.MethodGet, gamePath(code, ""), nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// Join takes the second seat. Joining a game the caller is already in is not an error.
func (c *Client) Join(ctx context.Context, code string) (*JoinResult, error) {
	var res JoinResult
	if err := c.do(ctx, http.MethodPost, gamePath(code, "/join"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MarkReady marks the caller ready.
func (c *Client) MarkReady(ctx context.Context, code string) (*Game, error) {
	return c.gameAction(ctx, code, "/ready")
}

// Start starts the game; creator only.
func (c *Client) Start(ctx context.Context, code string) (*Game, error) {
	return c.gameAction(ctx, code, "/start")
}

// SubmitAnswer answers the open question. round may be 0 to skip the round check.
func (c *Client) SubmitAnswer(ctx context.Context, code, answer string, round int) (*AnswerResult, error) {
	body := struct {
		Answer string `json:"answer"`
		Round  int    `json:"round,omitempty"`
	}{Answer: answer, Round: round}

	var res AnswerResult
	if err := c.do(ctx, http.MethodPost, gamePath(code, "/answer"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// NextRound closes the round expectedRound and opens the next one. A call for
// a round the other player already closed returns the game with Advanced false.
func (c *Client) NextRound(ctx context.Context, code string, expectedRound int) (*RoundResult, error) {
	body := struct {
		ExpectedRound int `json:"expected_round"`
	}{ExpectedRound: expectedRound}

	var res RoundResult
	if err := c.do(ctx, http.MethodPost, gamePath(code, "/next"), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Forfeit ends the game in the opponent's favour.
func (c *Client) Forfeit(ctx context.Context, code string) (*ForfeitResult, error) {
	var res ForfeitResult
	if err := c.do(ctx, http.MethodPost, gamePath(code, "/forfeit"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RequestRematch records that the caller wants to play again.
func (c *Client) RequestRematch(ctx context.Context, code string) (*RematchRequestResult, error) {
	var res RematchRequestResult
	if err := c.do(ctx, http.MethodPost, gamePath(code, "/rematch"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateRematch creates (or returns the already created) rematch game.
func (c *Client) CreateRematch(ctx context.Context, code string) (*RematchResult, error) {
	var res RematchResult
	if err := c.do(ctx, http.MethodPost, gamePath(code, "/rematch/create"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// History returns the caller's finished games, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]GameSummary, error) {
	path := "/api/games/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var res struct {
		Games []GameSummary `json:"games"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Games, nil
}

func (c *Client) gameAction(ctx context.Context, code, action string) (*Game, error) {
	var game Game
	if err := c.do(ctx, http.MethodPost, gamePath(code, action), nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func gamePath(code, action string) string {
	return "/api/games/" + url.PathEscape(code) + action
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("duelclient: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("duelclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("duelclient: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Error     string `json:"error"`
		ErrorType string `json:"error_type"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Type = payload.ErrorType
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	return apiErr
}
