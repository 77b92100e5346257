// Package shortlink talks to the external URL shortening service.
package shortlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_tickets/apperr"
	"Gin_postgres_redis_tickets/models"
)

var (
	ErrTransport = errors.New("shortener unreachable")
	ErrStatus    = errors.New("shortener rejected request")
	ErrDecode    = errors.New("shortener returned malformed body")
)

// 响应体最多读 64KB
const maxBody = 64 << 10

type Result struct {
	Hash     string `json:"hash"`
	ShortURL string `json:"short_url"`
	LongURL  string `json:"long_url"`
}

type Client struct {
	http    *http.Client
	apiURL  string
	apiKey  string
	baseURL string
}

func New(apiURL, apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		apiURL:  apiURL,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// LongURL is the address a token resolves to before shortening.
func (c *Client) LongURL(token string) string { return c.baseURL + "/" + token }

// Shorten asks the service for a short alias of base_url/token.
func (c *Client) Shorten(ctx context.Context, token string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(c.LongURL(token)))
	if err != nil {
		return Result{}, apperr.Wrap(apperr.Internal, "build shortener request", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.UpstreamUnavailable, "short link service unavailable",
			fmt.Errorf("%w: %w", ErrTransport, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Result{}, apperr.Wrap(apperr.UpstreamUnavailable, "short link service unavailable",
			fmt.Errorf("%w: read body: %w", ErrTransport, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, apperr.Wrap(apperr.UpstreamUnavailable, "short link service unavailable",
			&StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return Result{}, apperr.Wrap(apperr.UpstreamUnavailable, "short link service unavailable",
			fmt.Errorf("%w: %w", ErrDecode, err))
	}
	if err := models.ValidateHTTPURL(res.ShortURL); err != nil {
		return Result{}, apperr.Wrap(apperr.UpstreamUnavailable, "short link service unavailable",
			fmt.Errorf("%w: short_url: %w", ErrDecode, err))
	}
	return res, nil
}

// StatusError is a non-2xx reply; errors.Is(err, ErrStatus) matches it.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", ErrStatus, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }
