// Package client implements the HTTP transport to the CIAAN service. The
// session credential is a cookie held in the client's jar and attached
// implicitly to every request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"ciaan/config"
	"ciaan/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionCookie = "token"

// Client is the typed API client. All methods map HTTP failure statuses onto
// the models.AppError taxonomy so callers can route on error codes instead of
// status numbers.
type Client struct {
	base string
	http *http.Client
	log  *slog.Logger
}

// New creates a client with a fresh cookie jar.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Jar: jar, Timeout: cfg.RequestTimeout},
		log:  logger,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return models.NewInternalError(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return models.NewNetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("request done",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)))

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return models.NewInternalError(fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// statusError translates an error response into an AppError, keeping the
// server's message when it sent one.
func (c *Client) statusError(resp *http.Response) error {
	var envelope models.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	message := envelope.Error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if message == "" {
			message = "session expired"
		}
		return models.NewUnauthorizedError(message)
	case http.StatusForbidden:
		if message == "" {
			message = "forbidden"
		}
		return models.NewForbiddenError(message)
	case http.StatusNotFound:
		if message == "" {
			message = "not found"
		}
		return &models.AppError{Code: "NOT_FOUND", Message: message, Status: resp.StatusCode}
	case http.StatusBadRequest:
		if message == "" {
			message = "invalid request"
		}
		return models.NewValidationError(message)
	default:
		if message == "" {
			message = fmt.Sprintf("server returned status %d", resp.StatusCode)
		}
		return &models.AppError{Code: "INTERNAL_ERROR", Message: message, Status: resp.StatusCode}
	}
}

// SessionExpiry peeks at the session cookie's JWT expiry without verifying
// the signature (the client has no key; verification is the server's job).
// ok is false when no session cookie is present or it carries no expiry.
func (c *Client) SessionExpiry() (expiry time.Time, ok bool) {
	u, err := url.Parse(c.base)
	if err != nil || c.http.Jar == nil {
		return time.Time{}, false
	}
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name != sessionCookie {
			continue
		}
		token, _, err := jwt.NewParser().ParseUnverified(cookie.Value, jwt.MapClaims{})
		if err != nil {
			return time.Time{}, false
		}
		exp, err := token.Claims.GetExpirationTime()
		if err != nil || exp == nil {
			return time.Time{}, false
		}
		return exp.Time, true
	}
	return time.Time{}, false
}

// HasLiveSession reports whether a session cookie exists and has not expired.
// A live cookie can still be rejected server-side; this only short-circuits
// the obviously dead case.
func (c *Client) HasLiveSession() bool {
	expiry, ok := c.SessionExpiry()
	return ok && time.Now().Before(expiry)
}
