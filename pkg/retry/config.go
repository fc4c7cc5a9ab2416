package retry

import (
	"fmt"
	"time"
)

// BackoffStrategy определяет стратегию задержки между повторами
type BackoffStrategy string

const (
	// BackoffConstant - постоянная задержка
	BackoffConstant BackoffStrategy = "constant"
	// BackoffLinear - линейное увеличение задержки
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential - экспоненциальное увеличение задержки
	BackoffExponential BackoffStrategy = "exponential"
)

// Config содержит конфигурацию повторов для операций с брокером
type Config struct {
	Enabled bool `yaml:"enabled"`

	// MaxAttempts - максимальное количество попыток (включая первую), 0 = без ограничения
	MaxAttempts int `yaml:"max_attempts"`

	InitialDelay time.Duration   `yaml:"initial_delay"`
	MaxDelay     time.Duration   `yaml:"max_delay"`
	Backoff      BackoffStrategy `yaml:"backoff"`
	Multiplier   float64         `yaml:"multiplier"` // для exponential, по умолчанию 2.0

	// Jitter - доля случайного отклонения задержки (0.0 - 1.0)
	Jitter float64 `yaml:"jitter"`

	// RetryOn - подстроки текста ошибки, для которых нужен повтор.
	// Пустой список = повтор для всех ошибок
	RetryOn []string `yaml:"retry_on,omitempty"`
}

// Validate проверяет конфигурацию и подставляет значения по умолчанию
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0")
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = c.InitialDelay
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max_delay (%v) must be >= initial_delay (%v)", c.MaxDelay, c.InitialDelay)
	}

	switch c.Backoff {
	case "":
		c.Backoff = BackoffExponential
	case BackoffConstant, BackoffLinear, BackoffExponential:
	default:
		return fmt.Errorf("invalid backoff strategy: %s", c.Backoff)
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}

	if c.Jitter < 0 || c.Jitter > 1.0 {
		return fmt.Errorf("jitter must be between 0.0 and 1.0, got %f", c.Jitter)
	}
	return nil
}

// DefaultConfig возвращает конфигурацию по умолчанию (повторы выключены)
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Backoff:      BackoffExponential,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// EnableRetry создает конфигурацию с включенными повторами
func EnableRetry(maxAttempts int, initialDelay time.Duration) Config {
	config := DefaultConfig()
	config.Enabled = true
	config.MaxAttempts = maxAttempts
	config.InitialDelay = initialDelay
	return config
}
