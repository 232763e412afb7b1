package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy backoff exponencial acotado para fallas transitorias del almacén.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy valores por defecto.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, InitialBackoff: 50 * time.Millisecond, MaxBackoff: 2 * time.Second}
}

func (p RetryPolicy) backoff() retry.Backoff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = time.Millisecond
	}
	b := retry.NewExponential(initial)
	if p.MaxBackoff > 0 {
		b = retry.WithCappedDuration(p.MaxBackoff, b)
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// withRetry reintenta fn solo ante errores transitorios. Al agotar intentos devuelve el último error.
func (c *Coordinator) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, c.retry.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || !domain.IsTransient(err) {
			return err
		}
		c.metrics.StoreRetry(operation)
		c.log.Warn().Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Int("max_attempts", c.retry.MaxAttempts).
			Msg("falla transitoria del almacén, reintentando")
		return retry.RetryableError(err)
	})
}
