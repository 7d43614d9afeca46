// Package config loads the gateway configuration from a YAML file, applies
// defaults and environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"github.com/sweeney/sesame-gateway/internal/gpio"
)

// Sensor modes.
const (
	SensorEvents = "events"
	SensorPoll   = "poll"
)

// Relay drivers.
const (
	RelayCdev = "cdev"
	RelayMmap = "mmap"
	RelayNone = "none"
)

// Log verbosity levels, 1 (fatal) to 5 (debug).
const (
	LevelFatal = 1
	LevelError = 2
	LevelWarn  = 3
	LevelInfo  = 4
	LevelDebug = 5
)

// ClientIDPrefix is prepended to a generated MQTT client id.
const ClientIDPrefix = "sesame-gateway-"

// Config is the gateway configuration.
type Config struct {
	GPIO      GPIOConfig    `yaml:"gpio"`
	Door      DoorConfig    `yaml:"door"`
	MQTT      MQTTConfig    `yaml:"mqtt"`
	Redis     RedisConfig   `yaml:"redis"`
	HTTP      HTTPConfig    `yaml:"http"`
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 disables
	Log       LogConfig     `yaml:"log"`
}

// GPIOConfig selects the sensor and relay lines.
type GPIOConfig struct {
	Chip           string        `yaml:"chip"`
	PinOpened      int           `yaml:"pin_opened"`
	PinClosed      int           `yaml:"pin_closed"`
	PinRelay       int           `yaml:"pin_relay"`
	ActiveLow      bool          `yaml:"active_low"`       // sensor inputs
	RelayActiveLow bool          `yaml:"relay_active_low"` // relay output
	Debounce       time.Duration `yaml:"debounce"`
	SensorMode     string        `yaml:"sensor_mode"`   // "events" or "poll"
	PollInterval   time.Duration `yaml:"poll_interval"` // poll mode only
	RelayDriver    string        `yaml:"relay_driver"`  // "cdev", "mmap" or "none"
}

// DoorConfig holds the timing of the door session.
type DoorConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	Tick        time.Duration `yaml:"tick"`
}

// MQTTConfig holds MQTT broker connection settings.
type MQTTConfig struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	Prefix     string `yaml:"prefix"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	BufferSize int    `yaml:"buffer_size"`
}

// RedisConfig holds the optional mirror settings. An empty Addr disables it.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Key       string `yaml:"key"`
	QueueSize int    `yaml:"queue_size"`
}

// HTTPConfig holds the status server settings. An empty Addr disables it.
type HTTPConfig struct {
	Addr     string `yaml:"addr"`
	WSBroker string `yaml:"ws_broker"`
}

// LogConfig selects verbosity, destination and encoding.
type LogConfig struct {
	Level  int    `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // "json" or "console"
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		GPIO: GPIOConfig{
			Chip:         gpio.DefaultChip,
			PinOpened:    gpio.DefaultPinOpened,
			PinClosed:    gpio.DefaultPinClosed,
			PinRelay:     gpio.DefaultPinRelay,
			Debounce:     50 * time.Millisecond,
			SensorMode:   SensorEvents,
			PollInterval: 100 * time.Millisecond,
			RelayDriver:  RelayCdev,
		},
		Door: DoorConfig{
			IdleTimeout: 3 * time.Second,
			Tick:        time.Second,
		},
		MQTT: MQTTConfig{
			Broker:     "tcp://127.0.0.1:1883",
			Prefix:     "sesame",
			BufferSize: 256,
		},
		Redis: RedisConfig{
			Key:       "sesame:resources",
			QueueSize: 64,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Heartbeat: 15 * time.Minute,
		Log: LogConfig{
			Level:  LevelInfo,
			Format: "json",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Environment overrides are applied afterwards and a client id is generated
// if none is set.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := cfg.LoadFromEnv("SESAME"); err != nil {
		return Config{}, err
	}
	cfg.EnsureClientID()
	return cfg, nil
}

// LoadFromEnv overrides connection settings from PREFIX_* variables.
func (c *Config) LoadFromEnv(prefix string) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(prefix + "_" + name); ok {
			*dst = v
		}
	}
	str("MQTT_BROKER", &c.MQTT.Broker)
	str("MQTT_CLIENT_ID", &c.MQTT.ClientID)
	str("MQTT_USERNAME", &c.MQTT.Username)
	str("MQTT_PASSWORD", &c.MQTT.Password)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("HTTP_ADDR", &c.HTTP.Addr)

	if v, ok := os.LookupEnv(prefix + "_REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s_REDIS_DB: %w", prefix, err)
		}
		c.Redis.DB = db
	}
	return nil
}

// EnsureClientID generates a client id if none is configured.
func (c *Config) EnsureClientID() {
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = ClientIDPrefix + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var err error
	if c.GPIO.Chip == "" {
		err = multierr.Append(err, errors.New("gpio.chip is empty"))
	}
	pins := map[string]int{
		"gpio.pin_opened": c.GPIO.PinOpened,
		"gpio.pin_closed": c.GPIO.PinClosed,
		"gpio.pin_relay":  c.GPIO.PinRelay,
	}
	for name, pin := range pins {
		if pin < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: negative pin %d", name, pin))
		}
	}
	if c.GPIO.PinOpened == c.GPIO.PinClosed {
		err = multierr.Append(err, fmt.Errorf("gpio.pin_opened and gpio.pin_closed are both %d", c.GPIO.PinOpened))
	}
	if c.GPIO.RelayDriver != RelayNone && (c.GPIO.PinRelay == c.GPIO.PinOpened || c.GPIO.PinRelay == c.GPIO.PinClosed) {
		err = multierr.Append(err, fmt.Errorf("gpio.pin_relay %d is also a sensor pin", c.GPIO.PinRelay))
	}
	switch c.GPIO.SensorMode {
	case SensorEvents:
	case SensorPoll:
		if c.GPIO.PollInterval <= 0 {
			err = multierr.Append(err, errors.New("gpio.poll_interval must be positive in poll mode"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("gpio.sensor_mode %q: want %q or %q", c.GPIO.SensorMode, SensorEvents, SensorPoll))
	}
	switch c.GPIO.RelayDriver {
	case RelayCdev, RelayMmap, RelayNone:
	default:
		err = multierr.Append(err, fmt.Errorf("gpio.relay_driver %q: want %q, %q or %q", c.GPIO.RelayDriver, RelayCdev, RelayMmap, RelayNone))
	}
	if c.GPIO.Debounce < 0 {
		err = multierr.Append(err, errors.New("gpio.debounce is negative"))
	}
	if c.Door.IdleTimeout <= 0 {
		err = multierr.Append(err, errors.New("door.idle_timeout must be positive"))
	}
	if c.Door.Tick <= 0 {
		err = multierr.Append(err, errors.New("door.tick must be positive"))
	}
	if c.MQTT.Broker == "" {
		err = multierr.Append(err, errors.New("mqtt.broker is empty"))
	}
	if c.Heartbeat < 0 {
		err = multierr.Append(err, errors.New("heartbeat is negative"))
	}
	if c.Log.Level < LevelFatal || c.Log.Level > LevelDebug {
		err = multierr.Append(err, fmt.Errorf("log.level %d: want %d to %d", c.Log.Level, LevelFatal, LevelDebug))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("log.format %q: want json or console", c.Log.Format))
	}
	return err
}
