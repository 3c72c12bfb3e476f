package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Edx      EdxConfig      `yaml:"edx"`
	Sync     SyncConfig     `yaml:"sync"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// EdxConfig holds settings for the external course structure source.
type EdxConfig struct {
	BaseURL string        `yaml:"base_url" env:"EDX_BASE_URL" env-required:"true"`
	Timeout time.Duration `yaml:"timeout"  env:"EDX_TIMEOUT"  env-default:"30s"`
}

// SyncConfig holds sync cycle settings.
//
// Mode selects the batch failure semantics: "best_effort" isolates
// per-operation failures and returns them for replay, "strict" aborts the
// whole batch (and its transaction) on the first failure.
type SyncConfig struct {
	Interval      time.Duration `yaml:"interval"       env:"SYNC_INTERVAL"       env-default:"15m"`
	Mode          string        `yaml:"mode"           env:"SYNC_MODE"           env-default:"best_effort"`
	RetryAttempts int           `yaml:"retry_attempts" env:"SYNC_RETRY_ATTEMPTS" env-default:"3"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"  env:"SYNC_RETRY_BACKOFF"  env-default:"500ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
