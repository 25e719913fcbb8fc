// Package scoring submits leaderboard scores to the remote scoring endpoint.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/validate"
)

// DefaultRejectMessage is used when a rejection carries no error text.
const DefaultRejectMessage = "Error submitting leaderboard score"

const submitPath = "/submitLeaderboardScore"

// TokenSource yields the bearer credential for a session.
type TokenSource interface {
	BearerToken(ctx context.Context, sess *model.Session, forceRefresh bool) (string, error)
}

// RejectedError is a non-2xx answer from the scoring endpoint.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("scoring: rejected (%d): %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrServerRejected.
func (e *RejectedError) Unwrap() error { return errs.ErrServerRejected }

// Client posts score submissions.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	log        *zap.Logger
}

// Option customizes Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient creates a scoring client for baseURL.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("scoring: empty base url")
	}
	if tokens == nil {
		return nil, errors.New("scoring: nil token source")
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SubmitScore sends one submission authorized by sess. No request is made
// when the submission is malformed or sess has no credential. There are no
// retries.
func (c *Client) SubmitScore(ctx context.Context, sess *model.Session, sub model.ScoreSubmission) (model.SubmitResult, error) {
	if err := validate.Score(sub); err != nil {
		return nil, err
	}
	token, err := c.tokens.BearerToken(ctx, sess, false)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("scoring: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}
	reqID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("scoring: request id: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-Id", reqID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("score submission failed", zap.String("request_id", reqID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", errs.ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", errs.ErrNetworkFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rej := &RejectedError{Status: resp.StatusCode, Message: rejectMessage(raw)}
		c.log.Info("score rejected", zap.String("request_id", reqID.String()), zap.Int("status", rej.Status), zap.String("message", rej.Message))
		return nil, rej
	}

	result := model.SubmitResult{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("scoring: decode response: %w", err)
		}
	}
	c.log.Info("score submitted", zap.String("request_id", reqID.String()), zap.String("player", sub.PlayerName), zap.Int64("score", sub.Score))
	return result, nil
}

func rejectMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return DefaultRejectMessage
	}
	return body.Error
}
