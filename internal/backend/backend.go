// Package backend implements the local and cloud generation clients. Both
// perform one HTTP request/response cycle with a bounded timeout and at most
// one retry on a transient failure; cancellation suppresses the retry.
package backend

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

const (
	maxRetries   = 1
	retryBackoff = 500 * time.Millisecond
	// errBodyMax bounds how much of an error response body is echoed back.
	errBodyMax = 512
)

// complete runs the bounded retry loop around one attempt function.
// Cancellation is checked at the top of every attempt and again at the
// retry decision, so a cancelled call never retries and never falls through
// with a backend error masking the cancellation.
func complete(ctx context.Context, route schema.AgentRoute, attempt func(context.Context) (string, error)) (string, error) {
	log := pslog.Ctx(ctx)
	for try := 0; ; try++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := attempt(ctx)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !transient(err) || try >= maxRetries {
			return "", err
		}
		log.Warn("backend transient failure", "route", route, "try", try, "err", err)
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// transient reports whether the failure warrants the single retry: a
// transient HTTP status or a network timeout that is not a cancellation.
func transient(err error) bool {
	var backendErr *schema.BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// transientStatus classifies response statuses that warrant the retry:
// client ambiguity, request timeout, rate limiting, or any server error.
func transientStatus(status int) bool {
	switch status {
	case 408, 409, 429:
		return true
	}
	return status >= 500
}

func readErrBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, errBodyMax))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
