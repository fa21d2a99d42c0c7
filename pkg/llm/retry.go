package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// retryClient wraps a Client with kind-aware retry logic. An empty
// response body counts as a failure and is retried like any other
// transient kind.
type retryClient struct {
	inner      Client
	maxRetries int
	sleep      func(time.Duration)
}

// wrapWithRetry wraps a client with retry logic.
func wrapWithRetry(client Client, maxRetries int) Client {
	return &retryClient{
		inner:      client,
		maxRetries: maxRetries,
		sleep:      time.Sleep,
	}
}

func (r *retryClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	var (
		lastErr  error
		lastKind Kind
	)
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			if strings.TrimSpace(resp.Content) != "" {
				return resp, nil
			}
			lastKind = KindEmpty
			lastErr = fmt.Errorf("empty response content")
		} else {
			lastKind = Classify(err)
			lastErr = err
			if !lastKind.Retryable() {
				return nil, &APIError{Kind: lastKind, Attempts: attempt, Err: err}
			}
		}

		if attempt == r.maxRetries {
			break
		}

		delay := lastKind.Backoff()
		slog.Warn("LLM request failed, retrying",
			"kind", lastKind,
			"attempt", attempt,
			"max_retries", r.maxRetries,
			"delay", delay,
			"error", lastErr,
		)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.sleep(delay)
	}
	return nil, &APIError{Kind: lastKind, Attempts: r.maxRetries, Err: lastErr}
}

func (r *retryClient) Close() error {
	return r.inner.Close()
}
