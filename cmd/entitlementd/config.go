package main

import "time"

type appConfig struct {
	CatalogPath  string `env:"CATALOG_PATH" envDefault:"configs/catalog.yaml"` // CatalogPath is the tier/feature/limit table, loaded once at startup.
	DefaultTier  string `env:"DEFAULT_TIER" envDefault:"free"`                 // DefaultTier is assigned to users without a stored tier.
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"`                   // LogFormat is "json" or "text".
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`                    // LogLevel is "debug", "info", "warn" or "error".
	UsageBackend string `env:"USAGE_BACKEND" envDefault:"memory"`              // UsageBackend is "memory" or "redis".
	TierBackend  string `env:"TIER_BACKEND" envDefault:"memory"`               // TierBackend is "memory" or "postgres".
}

type redisConfig struct {
	URL            string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"` // URL is the redis connection string.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`          // ConnectTimeout bounds the initial connection phase.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`             // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`            // RetryInterval is the pause between attempts.
	OpTimeout      time.Duration `env:"REDIS_OP_TIMEOUT" envDefault:"3s"`                // OpTimeout bounds each counter operation; timeouts deny, never allow.
}

type postgresConfig struct {
	ConnectionString string        `env:"PG_CONN_URL"`                       // ConnectionString is the postgres connection string.
	RetryAttempts    int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts.
	RetryInterval    time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the base pause between attempts.
}
