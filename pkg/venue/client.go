package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single order submission when the caller does
// not configure one. A hung venue call must never leak a task.
const DefaultTimeout = 10 * time.Second

// APIError reports a failed venue interaction: transport failure,
// venue-side rejection, or a malformed venue response.
type APIError struct {
	Status int    // HTTP status, 0 for transport failures
	Body   string // response body for rejections, truncated
	Err    error  // underlying cause, if any
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("venue: rejected with status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("venue: request failed: %v", e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// OutcomeUnknownError reports a submission that was cancelled or timed
// out after the request was already in flight. The order may or may
// not have been accepted venue-side; callers must not treat this as
// "order did not happen".
type OutcomeUnknownError struct {
	Err error
}

func (e *OutcomeUnknownError) Error() string {
	return fmt.Sprintf("venue: submission outcome unknown: %v", e.Err)
}

func (e *OutcomeUnknownError) Unwrap() error { return e.Err }

// Client submits signed orders to the external order-matching venue
// over its REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
}

// NewClient creates a venue client. timeout <= 0 falls back to
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SubmitOrder posts the order and returns the venue-assigned order ID.
// No retries at this layer; a retry would risk double submission since
// the venue keys replay protection on the nonce.
func (c *Client) SubmitOrder(ctx context.Context, order OrderRequest) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", &APIError{Err: fmt.Errorf("encode order: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The request was handed to the transport: if the caller's
		// context died or the client's own timeout fired while it was
		// in flight, the venue may still have accepted it.
		if ctx.Err() != nil || isTimeout(err) {
			return "", &OutcomeUnknownError{Err: err}
		}
		return "", &APIError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", &OutcomeUnknownError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warnw("venue_rejected_order",
			"status", resp.StatusCode,
			"token_id", order.TokenID,
			"nonce", order.Nonce)
		return "", &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var parsed orderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &APIError{Status: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("decode response: %w", err)}
	}
	if parsed.OrderID == "" {
		return "", &APIError{Status: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("response missing orderID")}
	}

	return parsed.OrderID, nil
}

// isTimeout reports whether err is a transport timeout, such as the
// http.Client deadline expiring mid-request. url.Error satisfies
// net.Error, so both dial and in-flight timeouts land here.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
