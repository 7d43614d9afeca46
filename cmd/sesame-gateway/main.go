// Command sesame-gateway watches the garage door limit sensors, drives the
// door relay, and exposes counters and durations on an MQTT resource tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/sesame-gateway/internal/config"
	"github.com/sweeney/sesame-gateway/internal/gateway"
	"github.com/sweeney/sesame-gateway/internal/gpio"
	"github.com/sweeney/sesame-gateway/internal/logging"
	"github.com/sweeney/sesame-gateway/internal/logic"
	"github.com/sweeney/sesame-gateway/internal/mqtt"
	"github.com/sweeney/sesame-gateway/internal/redis"
	"github.com/sweeney/sesame-gateway/internal/resource"
	"github.com/sweeney/sesame-gateway/internal/status"
	"github.com/sweeney/sesame-gateway/internal/web"
)

func main() {
	cfgFile := flag.String("cfg", "", "YAML config file")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	verbosity := flag.Int("v", 0, "Debug level from 1 to 5: fatal(1), error(2), warning(3), info(4), debug(5)")
	logFile := flag.String("l", "", "Log file")
	printState := flag.Bool("print-state", false, "Print both sensor levels and exit")
	wsBroker := flag.String("ws-broker", "", `MQTT websocket URL for live UI ("=broker" derives from the broker, "off" disables)`)

	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "broker":
			cfg.MQTT.Broker = *broker
		case "http":
			cfg.HTTP.Addr = *httpAddr
			if *httpAddr == "off" {
				cfg.HTTP.Addr = ""
			}
		case "v":
			cfg.Log.Level = *verbosity
		case "l":
			cfg.Log.File = *logFile
		case "ws-broker":
			cfg.HTTP.WSBroker = *wsBroker
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	cfg.HTTP.WSBroker = resolveWSBroker(cfg.HTTP.WSBroker, cfg.MQTT.Broker)

	logger, err := logging.New(logging.Options{
		Verbosity: cfg.Log.Level,
		Format:    cfg.Log.Format,
		File:      cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *printState, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func run(cfg config.Config, printState bool, log *zap.Logger) error {
	sensors, err := openSensors(cfg.GPIO, log)
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}
	defer sensors.Close()

	if printState {
		opened, err := sensors.Level(logic.ChannelOpened)
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		closed, err := sensors.Level(logic.ChannelClosed)
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("opened: %s, closed: %s\n", levelString(opened), levelString(closed))
		return nil
	}

	relay, err := openRelay(cfg.GPIO)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}
	defer relay.Close()

	tree, err := mqtt.NewRealClient(mqtt.Options{
		Broker:     cfg.MQTT.Broker,
		ClientID:   cfg.MQTT.ClientID,
		Prefix:     cfg.MQTT.Prefix,
		Username:   cfg.MQTT.Username,
		Password:   cfg.MQTT.Password,
		BufferSize: cfg.MQTT.BufferSize,
	}, log)
	if err != nil {
		return fmt.Errorf("resource tree session: %w", err)
	}
	defer tree.Close()

	var pub resource.Publisher = tree
	var mirror *redis.Mirror
	if cfg.Redis.Addr != "" {
		rcfg := redis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Key:       cfg.Redis.Key,
			QueueSize: cfg.Redis.QueueSize,
		}
		client := redis.NewClient(rcfg)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redis.Ping(ctx, client); err != nil {
			log.Warn("redis mirror unreachable, writes will be retried per value", zap.String("addr", rcfg.Addr), zap.Error(err))
		}
		cancel()
		mirror = redis.NewMirror(client, rcfg, log)
		defer mirror.Close()
		pub = resource.Multi{tree, mirror}
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:        cfg.Door.Tick.Milliseconds(),
		IdleTimeoutMs: cfg.Door.IdleTimeout.Milliseconds(),
		HeartbeatMs:   cfg.Heartbeat.Milliseconds(),
		SensorMode:    cfg.GPIO.SensorMode,
		Broker:        cfg.MQTT.Broker,
		Prefix:        tree.Topics().Prefix(),
		RedisAddr:     cfg.Redis.Addr,
		HTTPPort:      cfg.HTTP.Addr,
		WSBroker:      cfg.HTTP.WSBroker,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(tree.IsConnected())

	gw := gateway.New(sensors, relay, pub, log, gateway.Options{
		IdleTimeout: cfg.Door.IdleTimeout,
		Tracker:     tracker,
	})

	a := &app{
		gw:        gw,
		tree:      tree,
		status:    tree,
		tracker:   tracker,
		heartbeat: logic.NewHeartbeat(cfg.Heartbeat, time.Now()),
		now:       time.Now,
		log:       log,
	}
	if mirror != nil {
		a.mirror = mirror
	}

	// The poller's baseline precedes the gateway's initial reads, so a change
	// in between is queued as an edge instead of lost.
	if p, ok := sensors.(*gpio.Poller); ok {
		p.Start(cfg.GPIO.PollInterval)
	}
	exec := make(chan resource.Path, 16)
	if err := a.startup(exec); err != nil {
		return err
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", zap.String("addr", cfg.HTTP.Addr))
	}

	log.Info("started",
		zap.String("broker", cfg.MQTT.Broker),
		zap.String("client_id", cfg.MQTT.ClientID),
		zap.String("sensor_mode", cfg.GPIO.SensorMode),
		zap.String("relay_driver", cfg.GPIO.RelayDriver),
		zap.Duration("idle_timeout", cfg.Door.IdleTimeout),
		zap.Duration("heartbeat", cfg.Heartbeat))

	ticker := time.NewTicker(cfg.Door.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	reason := a.runLoop(sensors.Edges(), exec, ticker.C, sigCh)
	a.shutdown(reason)
	return nil
}

func openSensors(cfg config.GPIOConfig, log *zap.Logger) (gpio.Sensors, error) {
	sc := gpio.SensorConfig{
		Chip:      cfg.Chip,
		PinOpened: cfg.PinOpened,
		PinClosed: cfg.PinClosed,
		ActiveLow: cfg.ActiveLow,
		Debounce:  cfg.Debounce,
		Polled:    cfg.SensorMode == config.SensorPoll,
	}
	rs, err := gpio.NewRealSensors(sc)
	if err != nil {
		return nil, err
	}
	if !sc.Polled {
		return rs, nil
	}
	return gpio.NewPoller(rs, rs.Close, log.With(zap.String("component", "gpio"))), nil
}

func openRelay(cfg config.GPIOConfig) (gpio.Relay, error) {
	switch cfg.RelayDriver {
	case config.RelayMmap:
		return gpio.NewVattuRelay(cfg.PinRelay, cfg.RelayActiveLow)
	case config.RelayNone:
		return gpio.NopRelay{}, nil
	default:
		return gpio.NewLineRelay(cfg.Chip, cfg.PinRelay, cfg.RelayActiveLow)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}

// resolveWSBroker converts the ws-broker setting into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" and
// empty disable the live view.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
