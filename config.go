package phxkit

import (
	"fmt"
	"os"
	"time"
)

// Config holds the tuning knobs for a Session. Zero values take defaults.
type Config struct {
	// HeartbeatInterval is the cadence of protocol heartbeats while the
	// connection is open. Default 30s.
	// Fallback: PHXKIT_HEARTBEAT_INTERVAL environment variable (Go
	// duration syntax, e.g. "15s").
	HeartbeatInterval time.Duration

	// NotifyBuffer is the capacity of the Notifications channel. When the
	// consumer falls behind, overflowing notifications are dropped and
	// reported through the ErrorHandler. Default 64.
	NotifyBuffer int
}

const (
	defaultHeartbeatInterval = 30 * time.Second
	defaultNotifyBuffer      = 64
)

// resolveConfig fills empty fields from environment variables and defaults,
// and validates the result.
func resolveConfig(cfg Config) (Config, error) {
	if cfg.HeartbeatInterval == 0 {
		if v := os.Getenv("PHXKIT_HEARTBEAT_INTERVAL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return cfg, fmt.Errorf("PHXKIT_HEARTBEAT_INTERVAL: %w", err)
			}
			cfg.HeartbeatInterval = d
		} else {
			cfg.HeartbeatInterval = defaultHeartbeatInterval
		}
	}
	if cfg.HeartbeatInterval <= 0 {
		return cfg, fmt.Errorf("HeartbeatInterval must be positive, got %v", cfg.HeartbeatInterval)
	}

	if cfg.NotifyBuffer == 0 {
		cfg.NotifyBuffer = defaultNotifyBuffer
	}
	if cfg.NotifyBuffer < 0 {
		return cfg, fmt.Errorf("NotifyBuffer must be positive, got %d", cfg.NotifyBuffer)
	}

	return cfg, nil
}
