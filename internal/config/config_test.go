package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sesame.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3*time.Second, cfg.Door.IdleTimeout)
	assert.Equal(t, time.Second, cfg.Door.Tick)
	assert.Equal(t, LevelInfo, cfg.Log.Level)
	assert.Equal(t, SensorEvents, cfg.GPIO.SensorMode)
	assert.Empty(t, cfg.Redis.Addr, "redis mirror is off by default")
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().MQTT.Broker, cfg.MQTT.Broker)
	assert.True(t, strings.HasPrefix(cfg.MQTT.ClientID, ClientIDPrefix))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
gpio:
  chip: gpiochip4
  pin_relay: 5
  sensor_mode: poll
  poll_interval: 20ms
  relay_driver: mmap
door:
  idle_timeout: 5s
mqtt:
  broker: tcp://broker.local:1883
  client_id: garage-1
  prefix: home/garage
redis:
  addr: 127.0.0.1:6379
  db: 2
http:
  addr: ":9090"
  ws_broker: ws://broker.local:9001
heartbeat: 1m
log:
  level: 5
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gpiochip4", cfg.GPIO.Chip)
	assert.Equal(t, 5, cfg.GPIO.PinRelay)
	assert.Equal(t, 22, cfg.GPIO.PinOpened, "unset fields keep defaults")
	assert.Equal(t, SensorPoll, cfg.GPIO.SensorMode)
	assert.Equal(t, 20*time.Millisecond, cfg.GPIO.PollInterval)
	assert.Equal(t, RelayMmap, cfg.GPIO.RelayDriver)
	assert.Equal(t, 5*time.Second, cfg.Door.IdleTimeout)
	assert.Equal(t, time.Second, cfg.Door.Tick)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, "garage-1", cfg.MQTT.ClientID)
	assert.Equal(t, "home/garage", cfg.MQTT.Prefix)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "sesame:resources", cfg.Redis.Key)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, time.Minute, cfg.Heartbeat)
	assert.Equal(t, LevelDebug, cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadUnknownField(t *testing.T) {
	path := writeConfig(t, "mqtt:\n  brokr: tcp://typo:1883\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SESAME_MQTT_BROKER", "tcp://env:1883")
	t.Setenv("SESAME_REDIS_ADDR", "redis:6379")
	t.Setenv("SESAME_REDIS_DB", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tcp://env:1883", cfg.MQTT.Broker)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadFromEnvBadDB(t *testing.T) {
	t.Setenv("SESAME_REDIS_DB", "three")
	_, err := Load("")
	assert.Error(t, err)
}

func TestEnsureClientIDKeepsConfigured(t *testing.T) {
	cfg := Default()
	cfg.MQTT.ClientID = "fixed"
	cfg.EnsureClientID()
	assert.Equal(t, "fixed", cfg.MQTT.ClientID)

	cfg.MQTT.ClientID = ""
	cfg.EnsureClientID()
	id := strings.TrimPrefix(cfg.MQTT.ClientID, ClientIDPrefix)
	assert.Len(t, id, 8)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"same sensor pins", func(c *Config) { c.GPIO.PinClosed = c.GPIO.PinOpened }, "both"},
		{"relay on sensor pin", func(c *Config) { c.GPIO.PinRelay = c.GPIO.PinClosed }, "also a sensor pin"},
		{"negative pin", func(c *Config) { c.GPIO.PinRelay = -1 }, "negative pin"},
		{"bad sensor mode", func(c *Config) { c.GPIO.SensorMode = "irq" }, "sensor_mode"},
		{"poll without interval", func(c *Config) { c.GPIO.SensorMode = SensorPoll; c.GPIO.PollInterval = 0 }, "poll_interval"},
		{"bad relay driver", func(c *Config) { c.GPIO.RelayDriver = "sysfs" }, "relay_driver"},
		{"zero idle timeout", func(c *Config) { c.Door.IdleTimeout = 0 }, "idle_timeout"},
		{"zero tick", func(c *Config) { c.Door.Tick = 0 }, "door.tick"},
		{"no broker", func(c *Config) { c.MQTT.Broker = "" }, "mqtt.broker"},
		{"level too high", func(c *Config) { c.Log.Level = 6 }, "log.level"},
		{"level too low", func(c *Config) { c.Log.Level = 0 }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateRelayNoneAllowsSharedPin(t *testing.T) {
	cfg := Default()
	cfg.GPIO.RelayDriver = RelayNone
	cfg.GPIO.PinRelay = cfg.GPIO.PinOpened
	assert.NoError(t, cfg.Validate())
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Broker = ""
	cfg.Door.Tick = 0
	cfg.Log.Level = 9

	assert.Len(t, multierr.Errors(cfg.Validate()), 3)
}
