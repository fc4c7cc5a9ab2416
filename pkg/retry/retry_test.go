package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRetryer_SuccessAfterRetries(t *testing.T) {
	retryer, err := NewRetryer(EnableRetry(5, time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to create retryer: %v", err)
	}

	attempts := 0
	err = retryer.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryer_MaxAttemptsExceeded(t *testing.T) {
	retryer, err := NewRetryer(EnableRetry(3, time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to create retryer: %v", err)
	}

	cause := errors.New("persistent error")
	attempts := 0
	err = retryer.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return cause
	})
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryer_Delay(t *testing.T) {
	tests := []struct {
		backoff BackoffStrategy
		want    []time.Duration
	}{
		{BackoffConstant, []time.Duration{100, 100, 100, 100}},
		{BackoffLinear, []time.Duration{100, 200, 300, 350}},
		{BackoffExponential, []time.Duration{100, 200, 350, 350}},
	}

	for _, tt := range tests {
		t.Run(string(tt.backoff), func(t *testing.T) {
			config := EnableRetry(10, 100*time.Millisecond)
			config.MaxDelay = 350 * time.Millisecond
			config.Backoff = tt.backoff
			config.Jitter = 0

			retryer, err := NewRetryer(config)
			if err != nil {
				t.Fatalf("Failed to create retryer: %v", err)
			}
			for i, want := range tt.want {
				if got := retryer.Delay(i + 1); got != want*time.Millisecond {
					t.Errorf("Delay(%d) = %v, want %v", i+1, got, want*time.Millisecond)
				}
			}
		})
	}
}

func TestRetryer_Jitter(t *testing.T) {
	config := EnableRetry(3, 100*time.Millisecond)
	config.Backoff = BackoffConstant
	config.Jitter = 0.5
	retryer, err := NewRetryer(config)
	if err != nil {
		t.Fatalf("Failed to create retryer: %v", err)
	}

	for i := 0; i < 50; i++ {
		d := retryer.Delay(1)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("Delay with jitter out of range: %v", d)
		}
	}
}

func TestRetryer_ContextCancellation(t *testing.T) {
	retryer, err := NewRetryer(EnableRetry(10, 10*time.Second))
	if err != nil {
		t.Fatalf("Failed to create retryer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err = retryer.Do(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("broker unavailable")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetryer_OnRetryCallback(t *testing.T) {
	retryer, err := NewRetryer(EnableRetry(3, time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to create retryer: %v", err)
	}

	var calls []int
	retryer.OnRetry(func(attempt int, err error, delay time.Duration) {
		calls = append(calls, attempt)
	})
	retryer.Do(context.Background(), func(ctx context.Context) error {
		return errors.New("error")
	})

	// 3 попытки = 2 повтора
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("Expected callbacks for attempts [1 2], got %v", calls)
	}
}

func TestRetryer_NonRetryable(t *testing.T) {
	config := EnableRetry(3, time.Millisecond)
	config.RetryOn = []string{"timeout", "connection refused"}
	retryer, err := NewRetryer(config)
	if err != nil {
		t.Fatalf("Failed to create retryer: %v", err)
	}

	tests := []struct {
		name     string
		err      error
		attempts int
	}{
		{"matching pattern", errors.New("dial tcp: connection refused"), 3},
		{"other error", errors.New("invalid input"), 1},
		{"permanent", Permanent(errors.New("timeout")), 1},
		{"deadline", context.DeadlineExceeded, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := retryer.Do(context.Background(), func(ctx context.Context) error {
				attempts++
				return tt.err
			})
			if err == nil {
				t.Fatal("Expected error")
			}
			if attempts != tt.attempts {
				t.Errorf("Expected %d attempts, got %d", tt.attempts, attempts)
			}
		})
	}
}

func TestRetryer_Disabled(t *testing.T) {
	retryer, err := NewRetryer(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create retryer: %v", err)
	}

	attempts := 0
	err = retryer.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("error")
	})
	if err == nil {
		t.Error("Expected error when retry disabled")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt when retry disabled, got %d", attempts)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"negative attempts", func(c *Config) { c.MaxAttempts = -1 }, "max_attempts"},
		{"max below initial", func(c *Config) { c.MaxDelay = time.Millisecond }, "max_delay"},
		{"bad backoff", func(c *Config) { c.Backoff = "fibonacci" }, "invalid backoff"},
		{"bad jitter", func(c *Config) { c.Jitter = 1.5 }, "jitter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := EnableRetry(3, time.Second)
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	// пустые поля заполняются значениями по умолчанию
	c := Config{Enabled: true, InitialDelay: time.Second}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c.Backoff != BackoffExponential || c.Multiplier != 2.0 || c.MaxDelay != time.Second {
		t.Errorf("defaults not applied: %+v", c)
	}
}
