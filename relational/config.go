package relational

import (
	"fmt"
	"time"
)

// Driver selects the SQL dialect and database/sql driver.
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Pool bounds accepted by Validate.
const (
	MinConnsLower = 0
	MinConnsUpper = 2
	MaxConnsLower = 5
	MaxConnsUpper = 20
)

// Config describes the relational store and its pool.
type Config struct {
	// Driver is the SQL dialect. Defaults to mysql.
	Driver Driver

	Host     string
	Port     int
	User     string
	Password string
	Database string

	// TLS requires an encrypted connection and rejects certificates that
	// do not verify.
	TLS bool

	// DSN overrides the connection fields above when set. For sqlite it is
	// the database path (":memory:" for a private in-memory database).
	DSN string

	// MinConns is the number of connections warmed at connect time (0–2).
	MinConns int

	// MaxConns bounds open connections (5–20).
	MaxConns int

	// AcquireTimeout bounds dialing and the connect-time round trip.
	AcquireTimeout time.Duration

	// IdleTimeout closes connections idle for longer than this.
	IdleTimeout time.Duration

	// KeepAlive is the TCP keep-alive interval for pooled connections.
	KeepAlive time.Duration
}

// DefaultConfig returns a Config with safe defaults for a local MySQL.
func DefaultConfig() Config {
	return Config{
		Driver:         DriverMySQL,
		Host:           "localhost",
		Port:           3306,
		User:           "root",
		Database:       "storefront",
		TLS:            true,
		MinConns:       0,
		MaxConns:       10,
		AcquireTimeout: 5 * time.Second,
		IdleTimeout:    30 * time.Second,
		KeepAlive:      10 * time.Second,
	}
}

// Validate checks driver and pool bounds.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMySQL, DriverPostgres:
		if c.DSN == "" && c.Host == "" {
			return fmt.Errorf("duostore/relational: host is required")
		}
	case DriverSQLite:
		if c.DSN == "" {
			return fmt.Errorf("duostore/relational: sqlite requires a DSN")
		}
	default:
		return fmt.Errorf("duostore/relational: unknown driver %q", c.Driver)
	}
	if c.MinConns < MinConnsLower || c.MinConns > MinConnsUpper {
		return fmt.Errorf("duostore/relational: min conns %d outside [%d, %d]",
			c.MinConns, MinConnsLower, MinConnsUpper)
	}
	if c.MaxConns < MaxConnsLower || c.MaxConns > MaxConnsUpper {
		return fmt.Errorf("duostore/relational: max conns %d outside [%d, %d]",
			c.MaxConns, MaxConnsLower, MaxConnsUpper)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("duostore/relational: acquire timeout must be positive")
	}
	return nil
}
