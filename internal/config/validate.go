package config

import "fmt"

// Sync modes accepted by SyncConfig.Mode.
const (
	ModeBestEffort = "best_effort"
	ModeStrict     = "strict"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Edx.BaseURL == "" {
		return fmt.Errorf("edx.base_url is required")
	}

	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if c.Edx.Timeout <= 0 {
		return fmt.Errorf("edx.timeout must be > 0 (got %v)", c.Edx.Timeout)
	}

	return nil
}

func (s *SyncConfig) validate() error {
	switch s.Mode {
	case ModeBestEffort, ModeStrict:
	default:
		return fmt.Errorf("mode must be %q or %q (got %q)", ModeBestEffort, ModeStrict, s.Mode)
	}

	if s.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %v)", s.Interval)
	}
	if s.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be >= 1 (got %d)", s.RetryAttempts)
	}
	if s.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff must be >= 0 (got %v)", s.RetryBackoff)
	}

	return nil
}
