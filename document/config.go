package document

import (
	"fmt"
	"time"
)

// Config describes the document store connection.
type Config struct {
	// URI is the connection string, e.g. "mongodb://localhost:27017".
	URI string

	// Database is the database used by Database() and Collection().
	Database string

	// ServerSelectionTimeout bounds Connect and Ping so an unreachable
	// server fails fast instead of hanging the caller.
	ServerSelectionTimeout time.Duration

	ConnectTimeout time.Duration
	SocketTimeout  time.Duration

	MinPoolSize uint64
	MaxPoolSize uint64

	// Compressors lists wire compressors in preference order.
	Compressors []string
}

// DefaultConfig returns a Config for a local server.
func DefaultConfig() Config {
	return Config{
		URI:                    "mongodb://localhost:27017",
		Database:               "storefront",
		ServerSelectionTimeout: 5 * time.Second,
		ConnectTimeout:         5 * time.Second,
		SocketTimeout:          45 * time.Second,
		MinPoolSize:            2,
		MaxPoolSize:            10,
		Compressors:            []string{"zlib"},
	}
}

// Validate checks required fields and pool bounds.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("duostore/document: uri is required")
	}
	if c.Database == "" {
		return fmt.Errorf("duostore/document: database is required")
	}
	if c.MaxPoolSize == 0 || c.MinPoolSize > c.MaxPoolSize {
		return fmt.Errorf("duostore/document: invalid pool bounds [%d, %d]", c.MinPoolSize, c.MaxPoolSize)
	}
	if c.ServerSelectionTimeout <= 0 {
		return fmt.Errorf("duostore/document: server selection timeout must be positive")
	}
	return nil
}
