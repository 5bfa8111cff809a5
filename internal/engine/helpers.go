package engine

import (
	"context"
	"math"
	"strings"
	"time"

	"hedgebot/internal/models"
	"hedgebot/internal/trade"
)

const retryAttempts = 5

func withRetry[T any](ctx context.Context, e *Engine, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := e.retryBase
	for i := 0; i < retryAttempts; i++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if i == retryAttempts-1 {
			break
		}
		wait := time.Duration(math.Min(float64(backoff), float64(e.retryBase*30)))
		if isRateLimitError(err) {
			wait = time.Duration(math.Min(float64(backoff*4), float64(e.retryBase*30)))
		}
		e.logEntry().WithError(lastErr).WithField("attempt", i+1).Warn("Ошибка, повторяем запрос.")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return zero, lastErr
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if trade.IsRejected(err, models.RetCodeTooManyRequests) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Превышен лимит запросов") || strings.Contains(msg, "429")
}
