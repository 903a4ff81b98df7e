package ordsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	ordsynctesting "github.com/floradistro/ordsync/testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Empty(t, cfg.Topic)
}

func TestSetDefaults(t *testing.T) {
	cfg := Config{Topic: "orders.store1", ReconnectDelay: 2 * time.Second}
	SetDefaults(&cfg)

	// Explicit values survive; zero fields are filled in.
	assert.Equal(t, "orders.store1", cfg.Topic)
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.Topic = "orders.store1"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing topic", func(t *testing.T) {
		cfg := valid()
		cfg.Topic = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive heartbeat", func(t *testing.T) {
		cfg := valid()
		cfg.HeartbeatInterval = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive reconnect delay", func(t *testing.T) {
		cfg := valid()
		cfg.ReconnectDelay = -time.Second
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive handshake timeout", func(t *testing.T) {
		cfg := valid()
		cfg.HandshakeTimeout = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive fetch timeout", func(t *testing.T) {
		cfg := valid()
		cfg.FetchTimeout = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("heartbeat faster than reconnect is allowed", func(t *testing.T) {
		// The two tunables are independent; an inverted relationship only
		// warns.
		cfg := valid()
		cfg.HeartbeatInterval = time.Second
		cfg.ReconnectDelay = 5 * time.Second
		require.NoError(t, cfg.Validate())
	})
}

func TestConfigValidateWithWarnings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Topic = "orders.store1"
	cfg.HeartbeatInterval = time.Second
	cfg.ReconnectDelay = 2 * time.Second

	// Still valid; short or inverted intervals only warn.
	require.NoError(t, cfg.Validate())
	cfg.ValidateWithWarnings(ordsynctesting.NewTestLogger(t))
}

func TestConfigYAML(t *testing.T) {
	input := `
topic: orders.store1
heartbeatInterval: 45s
reconnectDelay: 3s
handshakeTimeout: 2s
fetchTimeout: 15s
`

	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(input), &cfg))

	assert.Equal(t, "orders.store1", cfg.Topic)
	assert.Equal(t, 45*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 3*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 2*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	require.NoError(t, cfg.Validate())
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	require.NoError(t, cfg.Validate())
	assert.Less(t, cfg.HeartbeatInterval, time.Second)
}
