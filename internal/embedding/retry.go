package embedding

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/hyperjump/synergy/pkg/utils"
)

// RetryPolicy bounds the exponential backoff applied to transient embedding failures.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy makes up to 10 attempts, waiting 2s growing to 30s between them.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     10,
	InitialInterval: 2 * time.Second,
	MaxInterval:     30 * time.Second,
}

// RetryingEmbedder retries transient failures of next with exponential backoff.
// Permanent failures (bad request, auth, dimension mismatch) are returned at once.
type RetryingEmbedder struct {
	next   Embedder
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingEmbedder wraps next. Zero fields of policy take DefaultRetryPolicy values.
func NewRetryingEmbedder(next Embedder, policy RetryPolicy, logger *zap.Logger) *RetryingEmbedder {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = DefaultRetryPolicy.MaxInterval
	}
	return &RetryingEmbedder{next: next, policy: policy, logger: utils.OrNop(logger)}
}

func (r *RetryingEmbedder) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxAttempts-1)), ctx)
}

func (r *RetryingEmbedder) notify(err error, wait time.Duration) {
	r.logger.Warn("embedding request failed, retrying", zap.Error(err), zap.Duration("wait", wait))
}

// Embed embeds text, retrying transient failures.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return backoff.RetryNotifyWithData(func() ([]float32, error) {
		v, err := r.next.Embed(ctx, text)
		return v, classify(err)
	}, r.backOff(ctx), r.notify)
}

// EmbedBatch embeds texts, retrying the whole batch on transient failures.
func (r *RetryingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return backoff.RetryNotifyWithData(func() ([][]float32, error) {
		v, err := r.next.EmbedBatch(ctx, texts)
		return v, classify(err)
	}, r.backOff(ctx), r.notify)
}

// Dimensions returns the dimension of the wrapped embedder.
func (r *RetryingEmbedder) Dimensions() int { return r.next.Dimensions() }

// Close closes the wrapped embedder.
func (r *RetryingEmbedder) Close() error { return r.next.Close() }

// classify marks non-transient errors as permanent so backoff stops.
func classify(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	return backoff.Permanent(err)
}

// IsTransient reports whether err is worth retrying: network failures, rate limiting and
// server errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
