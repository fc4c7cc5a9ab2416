package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// Func - операция, которую можно повторить
type Func func(ctx context.Context) error

// Retryer повторяет операцию с задержкой по стратегии backoff
type Retryer struct {
	config  Config
	onRetry func(attempt int, err error, delay time.Duration)
}

// NewRetryer создает Retryer из проверенной конфигурации
func NewRetryer(config Config) (*Retryer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	return &Retryer{config: config}, nil
}

// OnRetry задает callback, вызываемый перед каждым повтором
func (r *Retryer) OnRetry(fn func(attempt int, err error, delay time.Duration)) *Retryer {
	r.onRetry = fn
	return r
}

// permanentError помечает ошибку, которую бессмысленно повторять
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent оборачивает ошибку так, что Do возвращает ее без повторов
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do выполняет fn, повторяя при ошибке
func (r *Retryer) Do(ctx context.Context, fn Func) error {
	if !r.config.Enabled {
		return fn(ctx)
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !r.retryable(err) {
			return err
		}
		if r.config.MaxAttempts > 0 && attempt >= r.config.MaxAttempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, err)
		}

		delay := r.Delay(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled during retry: %w", errors.Join(ctx.Err(), err))
		}
	}
}

// Delay возвращает задержку перед повтором после попытки attempt (с 1)
func (r *Retryer) Delay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Backoff {
	case BackoffConstant:
		delay = r.config.InitialDelay
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	default:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * multiplier)
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter > 0 {
		delay += time.Duration(float64(delay) * r.config.Jitter * (rand.Float64()*2 - 1))
		if delay < 0 {
			delay = r.config.InitialDelay
		}
	}
	return delay
}

// retryable решает, нужен ли повтор для ошибки
func (r *Retryer) retryable(err error) bool {
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if len(r.config.RetryOn) == 0 {
		return true
	}
	msg := err.Error()
	for _, pattern := range r.config.RetryOn {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
