package ordsync

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for the Store.
//
// All duration fields accept standard Go duration strings like "30s", "5m"
// when loaded from YAML.
//
// Timing model:
//
//   - HeartbeatInterval drives the fallback poll: every tick performs a
//     silent full refresh that re-establishes a consistency baseline no
//     matter what the live feed delivered or dropped.
//   - ReconnectDelay is the fixed delay between a channel failure and the
//     single scheduled retry. There is no exponential backoff or jitter:
//     each failure schedules exactly one future attempt, so the retry rate
//     is bounded at one attempt per delay regardless of failure count.
//   - HandshakeTimeout bounds the channel subscription round-trip.
//   - FetchTimeout bounds a bulk fetch when the caller's context carries no
//     deadline of its own.
type Config struct {
	// Topic is the change-event topic to subscribe to (e.g. "orders.store1").
	Topic string `yaml:"topic"`

	// HeartbeatInterval is how often the fallback poll performs a silent
	// full refresh. Recommended: 30 seconds.
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`

	// ReconnectDelay is the fixed delay before retrying a failed channel
	// subscription. Recommended: 5 seconds.
	ReconnectDelay time.Duration `yaml:"reconnectDelay"`

	// HandshakeTimeout is the maximum time to wait for the channel
	// subscription handshake. Recommended: 5 seconds.
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`

	// FetchTimeout is the default deadline for bulk fetches issued without
	// a caller deadline. Recommended: 10 seconds.
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
}

// UnmarshalYAML decodes the config, accepting Go duration strings ("30s",
// "5m") as well as integer nanoseconds for the duration fields.
func (cfg *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Topic             string       `yaml:"topic"`
		HeartbeatInterval yamlDuration `yaml:"heartbeatInterval"`
		ReconnectDelay    yamlDuration `yaml:"reconnectDelay"`
		HandshakeTimeout  yamlDuration `yaml:"handshakeTimeout"`
		FetchTimeout      yamlDuration `yaml:"fetchTimeout"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	cfg.Topic = raw.Topic
	cfg.HeartbeatInterval = time.Duration(raw.HeartbeatInterval)
	cfg.ReconnectDelay = time.Duration(raw.ReconnectDelay)
	cfg.HandshakeTimeout = time.Duration(raw.HandshakeTimeout)
	cfg.FetchTimeout = time.Duration(raw.FetchTimeout)

	return nil
}

// yamlDuration parses duration strings; bare integers are nanoseconds.
type yamlDuration time.Duration

func (d *yamlDuration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = yamlDuration(parsed)

		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = yamlDuration(n)

	return nil
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 30 * time.Second,
		ReconnectDelay:    5 * time.Second,
		HandshakeTimeout:  5 * time.Second,
		FetchTimeout:      10 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production
// defaults. The config is modified in place.
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = defaults.ReconnectDelay
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
}

// Validate checks configuration constraints and returns an error for invalid
// values.
//
// Hard validation rules:
//   - Topic must be non-empty
//   - All durations must be positive
func (cfg *Config) Validate() error {
	if cfg.Topic == "" {
		return fmt.Errorf("Topic must be set")
	}
	if cfg.HeartbeatInterval <= 0 {
		return fmt.Errorf("HeartbeatInterval must be > 0, got %v", cfg.HeartbeatInterval)
	}
	if cfg.ReconnectDelay <= 0 {
		return fmt.Errorf("ReconnectDelay must be > 0, got %v", cfg.ReconnectDelay)
	}
	if cfg.HandshakeTimeout <= 0 {
		return fmt.Errorf("HandshakeTimeout must be > 0, got %v", cfg.HandshakeTimeout)
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("FetchTimeout must be > 0, got %v", cfg.FetchTimeout)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for
// non-recommended values.
//
// Called after Validate() in NewStore() to provide operator guidance.
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.HeartbeatInterval < 5*time.Second {
		logger.Warn(
			"HeartbeatInterval is very short, every tick performs a full fetch",
			"heartbeatInterval", cfg.HeartbeatInterval,
			"recommended", "30s or higher",
		)
	}

	if cfg.ReconnectDelay < time.Second {
		logger.Warn(
			"ReconnectDelay is very short, may hammer the backend during an outage",
			"reconnectDelay", cfg.ReconnectDelay,
			"recommended", "5s",
		)
	}

	if cfg.HeartbeatInterval < cfg.ReconnectDelay {
		logger.Warn(
			"HeartbeatInterval is shorter than ReconnectDelay, the fallback poll will outpace reconnect attempts",
			"heartbeatInterval", cfg.HeartbeatInterval,
			"reconnectDelay", cfg.ReconnectDelay,
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Test timings are 10-100x faster than production defaults to enable rapid
// iteration without sacrificing coverage. Use DefaultConfig() for production
// deployments.
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.Topic = "orders.test"
	cfg.HeartbeatInterval = 100 * time.Millisecond
	cfg.ReconnectDelay = 50 * time.Millisecond
	cfg.HandshakeTimeout = time.Second
	cfg.FetchTimeout = time.Second

	return cfg
}
