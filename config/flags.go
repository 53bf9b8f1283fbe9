package config

import "time"

type flag struct {
	key   string
	def   any
	usage string
}

var flags = []flag{
	{"use-relational", true, "Use the relational store as primary, falling back to the document store"},

	{"sql-driver", "mysql", "SQL dialect: mysql, postgres or sqlite"},
	{"sql-host", "localhost", "Relational store host"},
	{"sql-port", 3306, "Relational store port"},
	{"sql-user", "root", "Relational store user"},
	{"sql-password", "", "Relational store password"},
	{"sql-database", "storefront", "Relational database name"},
	{"sql-tls", true, "Require TLS with verified certificates for the relational store"},
	{"sql-dsn", "", "Relational DSN; overrides host, port, user, password and database"},
	{"sql-pool-min", 0, "Connections warmed at connect time (0-2)"},
	{"sql-pool-max", 10, "Maximum open relational connections (5-20)"},
	{"sql-idle-timeout", 30 * time.Second, "Close relational connections idle for longer than this"},
	{"sql-keepalive", 10 * time.Second, "TCP keep-alive interval for relational connections"},
	{"sql-max-concurrency", 0, "Maximum relational operations in flight; 0 disables the limit"},
	{"sql-rate-limit", 0.0, "Maximum relational operations per second; 0 disables the limit"},
	{"sql-rate-burst", 0, "Burst size of the relational rate limit"},

	{"mongo-uri", "mongodb://localhost:27017", "Document store connection string"},
	{"mongo-database", "storefront", "Document store database name"},
	{"mongo-pool-min", 2, "Minimum document store pool size"},
	{"mongo-pool-max", 10, "Maximum document store pool size"},
	{"mongo-max-concurrency", 0, "Maximum document operations in flight; 0 disables the limit"},
	{"mongo-rate-limit", 0.0, "Maximum document operations per second; 0 disables the limit"},
	{"mongo-rate-burst", 0, "Burst size of the document rate limit"},

	{"redis-url", "", "Cache URL (redis:// or rediss://); empty disables the cache"},
	{"cache-codec", "json", "Cache value codec: json or msgpack"},

	{"connect-timeout", 5 * time.Second, "Timeout of each connect attempt"},
	{"health-timeout", 5 * time.Second, "Timeout of each liveness probe"},
	{"operation-timeout", time.Duration(0), "Timeout of each operation attempt; 0 disables it"},
	{"retry-attempts", 5, "Document store connect attempts at startup"},
	{"retry-base-delay", time.Second, "Initial delay between startup connect attempts"},
	{"retry-max-delay", 10 * time.Second, "Maximum delay between startup connect attempts"},
	{"retry-jitter", false, "Randomise the delay between startup connect attempts"},

	{"health-schedule", "@every 30s", "Cron schedule of background health probes; empty disables them"},

	{"http-addr", ":8080", "Address of the health and status API"},
	{"log-level", "info", "Log level: debug, info, warn or error"},
	{"log-format", "text", "Log format: text or json"},
}
