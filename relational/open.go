package relational

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/schema"
)

// open builds the *sql.DB for the configured driver without touching the
// network, and returns the matching bun dialect.
func open(cfg Config) (*sql.DB, schema.Dialect, error) {
	switch cfg.Driver {
	case DriverMySQL:
		dsn, err := mysqlDSN(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqldb, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, nil, err
		}
		return sqldb, mysqldialect.New(), nil

	case DriverPostgres:
		return sql.OpenDB(pgdriver.NewConnector(postgresOptions(cfg)...)), pgdialect.New(), nil

	case DriverSQLite:
		sqldb, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return sqldb, sqlitedialect.New(), nil
	}
	return nil, nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}

// mysqlDSN renders the go-sql-driver DSN. Connections go through a dialer
// registered per keep-alive interval so pooled sockets carry TCP keep-alive.
func mysqlDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.Net = registerKeepAliveDialer(cfg)
	mc.Timeout = cfg.AcquireTimeout
	mc.ParseTime = true
	// Report matched rather than changed rows so an idempotent UPDATE is
	// not mistaken for a missing row.
	mc.ClientFoundRows = true
	if cfg.TLS {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN(), nil
}

func registerKeepAliveDialer(cfg Config) string {
	name := "duostore-tcp-" + cfg.KeepAlive.String()
	dialer := &net.Dialer{Timeout: cfg.AcquireTimeout, KeepAlive: cfg.KeepAlive}
	mysql.RegisterDialContext(name, func(ctx context.Context, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, "tcp", addr)
	})
	return name
}

func postgresOptions(cfg Config) []pgdriver.Option {
	if cfg.DSN != "" {
		return []pgdriver.Option{pgdriver.WithDSN(cfg.DSN), pgdriver.WithDialTimeout(cfg.AcquireTimeout)}
	}

	opts := []pgdriver.Option{
		pgdriver.WithAddr(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.Database),
		pgdriver.WithDialTimeout(cfg.AcquireTimeout),
	}
	if cfg.TLS {
		opts = append(opts, pgdriver.WithTLSConfig(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}))
	} else {
		opts = append(opts, pgdriver.WithInsecure(true))
	}
	return opts
}

// roundTrip proves the database serves queries, not just accepts sockets.
func roundTrip(ctx context.Context, db *sql.DB) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return err
	}
	if one != 1 {
		return fmt.Errorf("unexpected round-trip result %d", one)
	}
	return nil
}
