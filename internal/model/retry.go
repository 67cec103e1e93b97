package model

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vbonduro/foodcoach/internal/analysis"
)

// Retrying wraps an Invoker and retries calls that fail with ErrUnavailable.
type Retrying struct {
	inner      Invoker
	retries    uint64
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// WithRetry returns inv wrapped with up to retries additional attempts using
// exponential backoff. retries <= 0 disables retrying.
func WithRetry(inv Invoker, retries int, logger *slog.Logger) *Retrying {
	if retries < 0 {
		retries = 0
	}
	return &Retrying{
		inner:      inv,
		retries:    uint64(retries),
		newBackOff: defaultBackOff,
		logger:     logger,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func (r *Retrying) Name() string { return r.inner.Name() }

func (r *Retrying) Invoke(ctx context.Context, image []byte, mimeType string, p analysis.Prompt) (string, error) {
	var (
		raw     string
		lastErr error
	)

	op := func() error {
		out, err := r.inner.Invoke(ctx, image, mimeType, p)
		if err == nil {
			raw = out
			return nil
		}
		lastErr = err
		if !errors.Is(err, ErrUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("model call failed, retrying",
			"backend", r.inner.Name(), "error", err, "wait", wait)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.retries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}
	return raw, nil
}
