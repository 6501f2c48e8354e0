package inspect

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Fran-cois/MATILDA/internal/core"
)

// retryInterval is the pause before the single retry of a failed backend
// call.
const retryInterval = 50 * time.Millisecond

// WithRetry wraps an inspector so that every transient backend failure is
// retried once before it is reported. Schema errors (missing table or
// column) are not retried; they cannot heal.
func WithRetry(inner Inspector) Inspector {
	return &retrying{inner: inner}
}

type retrying struct {
	inner Inspector
}

func retryable(err error) error {
	if err == nil {
		return nil
	}
	if ErrMissingTable.Is(err) || ErrMissingColumn.Is(err) {
		return backoff.Permanent(err)
	}
	return err
}

func retry1[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var out T
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), 1), ctx)
	err := backoff.Retry(func() error {
		var err error
		out, err = fn()
		return retryable(err)
	}, policy)
	return out, err
}

func (r *retrying) Tables(ctx context.Context) ([]string, error) {
	return retry1(ctx, func() ([]string, error) { return r.inner.Tables(ctx) })
}

func (r *retrying) Columns(ctx context.Context, table string) ([]*core.Column, error) {
	return retry1(ctx, func() ([]*core.Column, error) { return r.inner.Columns(ctx, table) })
}

func (r *retrying) RowCount(ctx context.Context, table string) (int64, error) {
	return retry1(ctx, func() (int64, error) { return r.inner.RowCount(ctx, table) })
}

func (r *retrying) DistinctCount(ctx context.Context, table, column string) (int64, error) {
	return retry1(ctx, func() (int64, error) { return r.inner.DistinctCount(ctx, table, column) })
}

func (r *retrying) ForeignKeys(ctx context.Context, table string) ([]*core.ForeignKey, error) {
	return retry1(ctx, func() ([]*core.ForeignKey, error) { return r.inner.ForeignKeys(ctx, table) })
}

func (r *retrying) OverlapRatio(ctx context.Context, a, b core.Attribute) (float64, error) {
	return retry1(ctx, func() (float64, error) { return r.inner.OverlapRatio(ctx, a, b) })
}

func (r *retrying) CountBodyMatches(ctx context.Context, q core.RuleQuery) (int64, error) {
	return retry1(ctx, func() (int64, error) { return r.inner.CountBodyMatches(ctx, q) })
}

func (r *retrying) CountBothMatches(ctx context.Context, q core.RuleQuery) (int64, error) {
	return retry1(ctx, func() (int64, error) { return r.inner.CountBothMatches(ctx, q) })
}
