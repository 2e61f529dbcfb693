package liveness

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/heirloom-app/heirloom/internal/util"
)

// Responder produces a challenge response. *vault.Session satisfies it.
type Responder interface {
	RespondToChallenge(challenge []byte) ([]byte, error)
}

// RetryPolicy is an explicit backoff policy for the check-in round trip:
// exponential backoff from BaseDelay, capped at MaxDelay, with a random
// jitter fraction applied to each delay.
type RetryPolicy struct {
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	JitterFraction float64
	MaxAttempts    int
}

// DefaultRetryPolicy returns the standard check-in retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       30 * time.Second,
		JitterFraction: 0.2,
		MaxAttempts:    5,
	}
}

// Delay returns the backoff delay before the given zero-based retry attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	if p.JitterFraction > 0 {
		jitter := (rand.Float64()*2 - 1) * p.JitterFraction * float64(d)
		d = time.Duration(float64(d) + jitter)
	}
	return d
}

// Client performs heartbeat check-ins against the liveness server.
type Client struct {
	http      *resty.Client
	responder Responder
	policy    RetryPolicy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithHTTPClient replaces the underlying resty client, e.g. to set TLS
// options or timeouts.
func WithHTTPClient(http *resty.Client) ClientOption {
	return func(c *Client) {
		c.http = http
	}
}

// NewClient returns a check-in client for the server at baseURL. The
// responder supplies challenge responses; it is only invoked while the vault
// session is unlocked.
func NewClient(baseURL string, responder Responder, opts ...ClientOption) *Client {
	c := &Client{
		http:      resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		responder: responder,
		policy:    DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

type checkinRequest struct {
	Challenge string `json:"challenge"`
	Response  string `json:"response"`
}

type checkinAck struct {
	Status   string `json:"status"`
	LastSeen string `json:"last_seen"`
}

// CheckIn performs one heartbeat round trip: fetch a challenge, answer it,
// submit the response. Transient transport and server failures are retried
// under the client's RetryPolicy; a locked vault is not retried, because
// only the user can resolve it.
func (c *Client) CheckIn(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.policy.Delay(attempt - 1)):
			}
		}

		err := c.checkInOnce(ctx)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("check-in failed after %d attempts: %w", c.policy.MaxAttempts, lastErr)
}

func (c *Client) checkInOnce(ctx context.Context) error {
	var challenge challengeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&challenge).
		Post("/api/v1/heartbeat/challenge")
	if err != nil {
		return retryableError{fmt.Errorf("requesting challenge: %w", err)}
	}
	if resp.IsError() {
		return retryableError{fmt.Errorf("requesting challenge: server returned %s", resp.Status())}
	}

	challengeBytes, err := util.Base64Decode(challenge.Challenge)
	if err != nil {
		return fmt.Errorf("decoding challenge: %w", err)
	}

	response, err := c.responder.RespondToChallenge(challengeBytes)
	if err != nil {
		return err
	}

	var ack checkinAck
	resp, err = c.http.R().
		SetContext(ctx).
		SetBody(checkinRequest{
			Challenge: challenge.Challenge,
			Response:  util.Base64Encode(response),
		}).
		SetResult(&ack).
		Post("/api/v1/heartbeat")
	if err != nil {
		return retryableError{fmt.Errorf("submitting check-in: %w", err)}
	}
	if resp.IsError() {
		return fmt.Errorf("check-in rejected: server returned %s", resp.Status())
	}
	return nil
}

type retryableError struct {
	err error
}

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	_, ok := err.(retryableError)
	return ok
}
