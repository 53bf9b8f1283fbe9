package selector

import (
	"time"

	"github.com/xraph/duostore/backoff"
)

// Config controls the selector state machine.
type Config struct {
	// UseRelational selects RELATIONAL mode at startup. It is read once,
	// by Initialize.
	UseRelational bool

	// ConnectTimeout bounds every single connect attempt.
	ConnectTimeout time.Duration

	// HealthTimeout bounds the liveness probe of Initialize and HealthCheck.
	HealthTimeout time.Duration

	// OperationTimeout bounds each Execute attempt when non-zero.
	OperationTimeout time.Duration

	// RetryAttempts is the document store connect budget at startup.
	RetryAttempts int

	// RetryBaseDelay and RetryMaxDelay shape the exponential backoff
	// between startup connect attempts.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// RetryJitter adds full jitter to the startup backoff.
	RetryJitter bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		UseRelational:  true,
		ConnectTimeout: 5 * time.Second,
		HealthTimeout:  5 * time.Second,
		RetryAttempts:  backoff.DefaultMaxAttempts,
		RetryBaseDelay: time.Second,
		RetryMaxDelay:  10 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = d.HealthTimeout
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = d.RetryBaseDelay
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = d.RetryMaxDelay
	}
	return c
}

func (c Config) strategy() backoff.Strategy {
	if c.RetryJitter {
		return backoff.NewExponentialWithJitter(c.RetryBaseDelay, c.RetryMaxDelay)
	}
	return backoff.NewExponential(c.RetryBaseDelay, c.RetryMaxDelay)
}
