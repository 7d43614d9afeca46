package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sweeney/sesame-gateway/internal/resource"
)

// Options configures a RealClient.
type Options struct {
	Broker         string
	ClientID       string
	Prefix         string
	Username       string
	Password       string
	ConnectTimeout time.Duration // default 10s
	PublishTimeout time.Duration // default 5s
	BufferSize     int           // messages kept while disconnected, default 256
}

func (o *Options) applyDefaults() {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 5 * time.Second
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 256
	}
}

// RealClient is the resource tree session on an actual MQTT broker.
type RealClient struct {
	client  paho.Client
	topics  Topics
	log     *zap.Logger
	timeout time.Duration

	mu        sync.Mutex
	buffer    *ringBuffer
	subs      map[resource.Path]bool // execute paths subscribed to
	handler   ExecuteHandler
	connected bool
	everUp    bool
}

// NewRealClient connects to the broker. The will message marks the gateway
// OFFLINE on the system topic if the connection drops.
func NewRealClient(opts Options, log *zap.Logger) (*RealClient, error) {
	opts.applyDefaults()
	c := &RealClient{
		topics:  NewTopics(opts.Prefix),
		log:     log.With(zap.String("component", "mqtt")),
		timeout: opts.PublishTimeout,
		buffer:  newRingBuffer(opts.BufferSize),
		subs:    make(map[resource.Path]bool),
	}

	will, err := FormatSystemPayload(SystemEvent{Event: EventOffline, Timestamp: time.Now()})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetKeepAlive(60*time.Second).
		SetOrderMatters(false).
		SetBinaryWill(c.topics.System(), will, 1, true).
		SetConnectionLostHandler(c.handleConnectionLost).
		SetOnConnectHandler(c.handleConnect)
	if opts.Username != "" {
		po.SetUsername(opts.Username).SetPassword(opts.Password)
	}

	c.client = paho.NewClient(po)
	token := c.client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		c.client.Disconnect(0)
		return nil, fmt.Errorf("connect to %s: connection timeout", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return c, nil
}

// Topics returns the topic scheme in use.
func (c *RealClient) Topics() Topics {
	return c.topics
}

// IsConnected implements ConnectionStatus.
func (c *RealClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Register publishes each object definition retained.
func (c *RealClient) Register(defs []resource.ObjectDefinition) error {
	var err error
	for _, def := range defs {
		payload, ferr := FormatDefinition(def)
		if ferr != nil {
			err = multierr.Append(err, fmt.Errorf("format definition %d: %w", def.ID, ferr))
			continue
		}
		err = multierr.Append(err, c.publishWait(c.topics.Definition(def.ID), 1, true, payload))
	}
	return err
}

// Publish sends a resource value retained. It does not wait for the broker:
// the delivery result is logged, and while disconnected the message is
// buffered and replayed on reconnect.
func (c *RealClient) Publish(path resource.Path, value resource.Value) error {
	c.send(bufferedMsg{
		topic:    c.topics.Value(path),
		payload:  FormatValue(value),
		qos:      1,
		retained: true,
	})
	return nil
}

// PublishSystem sends a system lifecycle event and waits for delivery.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	if !c.IsConnected() {
		c.send(bufferedMsg{topic: c.topics.System(), payload: payload, qos: 1, retained: event.Retained})
		return nil
	}
	return c.publishWait(c.topics.System(), 1, event.Retained, payload)
}

// Subscribe starts delivering execute commands for paths to handler.
// Subscriptions are restored after a reconnect.
func (c *RealClient) Subscribe(paths []resource.Path, handler ExecuteHandler) error {
	c.mu.Lock()
	c.handler = handler
	for _, p := range paths {
		c.subs[p] = true
	}
	c.mu.Unlock()

	var err error
	for _, p := range paths {
		err = multierr.Append(err, c.subscribe(c.topics.Exec(p)))
	}
	return err
}

// Unsubscribe stops delivering execute commands for paths.
func (c *RealClient) Unsubscribe(paths []resource.Path) error {
	topics := make([]string, 0, len(paths))
	c.mu.Lock()
	for _, p := range paths {
		delete(c.subs, p)
		topics = append(topics, c.topics.Exec(p))
	}
	c.mu.Unlock()

	token := c.client.Unsubscribe(topics...)
	if !token.WaitTimeout(c.timeout) {
		return errors.New("unsubscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

// Clear removes the retained values of paths by publishing empty payloads.
func (c *RealClient) Clear(paths []resource.Path) error {
	var err error
	for _, p := range paths {
		err = multierr.Append(err, c.publishWait(c.topics.Value(p), 1, true, nil))
	}
	return err
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.mu.Lock()
	if n := c.buffer.len(); n > 0 {
		c.log.Warn("discarding buffered messages", zap.Int("count", n))
	}
	c.connected = false
	c.mu.Unlock()
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (c *RealClient) subscribe(topic string) error {
	token := c.client.Subscribe(topic, 1, c.handleMessage)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (c *RealClient) publishWait(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// send publishes msg without blocking the caller.
func (c *RealClient) send(msg bufferedMsg) {
	c.mu.Lock()
	if !c.connected {
		c.bufferLocked(msg)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	token := c.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	go func() {
		if !token.WaitTimeout(c.timeout) {
			c.log.Error("publish timed out, buffering", zap.String("topic", msg.topic))
			c.mu.Lock()
			c.bufferLocked(msg)
			c.mu.Unlock()
			return
		}
		if err := token.Error(); err != nil {
			c.log.Error("publish failed, buffering", zap.String("topic", msg.topic), zap.Error(err))
			c.mu.Lock()
			c.bufferLocked(msg)
			c.mu.Unlock()
		}
	}()
}

func (c *RealClient) bufferLocked(msg bufferedMsg) {
	if c.buffer.push(msg) {
		c.log.Warn("offline buffer full, dropping oldest", zap.Int("capacity", c.buffer.capacity))
	}
}

func (c *RealClient) handleConnect(client paho.Client) {
	c.mu.Lock()
	c.connected = true
	reconnect := c.everUp
	c.everUp = true
	topics := make([]string, 0, len(c.subs))
	for p := range c.subs {
		topics = append(topics, c.topics.Exec(p))
	}
	pending := c.buffer.drainAll()
	c.mu.Unlock()

	if !reconnect {
		c.log.Info("connected")
		return
	}
	c.log.Info("reconnected", zap.Int("buffered", len(pending)), zap.Int("subscriptions", len(topics)))

	// Handlers must not block the paho router.
	go func() {
		for _, t := range topics {
			if err := c.subscribe(t); err != nil {
				c.log.Error("resubscribe failed", zap.Error(err))
			}
		}
		for _, msg := range pending {
			c.send(msg)
		}
		payload, err := FormatSystemPayload(SystemEvent{Event: EventReconnected, Timestamp: time.Now()})
		if err == nil {
			c.send(bufferedMsg{topic: c.topics.System(), payload: payload, qos: 1, retained: true})
		}
	}()
}

func (c *RealClient) handleConnectionLost(client paho.Client, err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.log.Warn("connection lost", zap.Error(err))
}

func (c *RealClient) handleMessage(client paho.Client, msg paho.Message) {
	path, err := c.topics.ParseExec(msg.Topic())
	if err != nil {
		c.log.Error("malformed execute topic", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	c.mu.Lock()
	ok := c.subs[path]
	handler := c.handler
	c.mu.Unlock()

	if !ok || handler == nil {
		c.log.Error("execute on unknown topic", zap.String("topic", msg.Topic()))
		return
	}
	c.log.Debug("execute received", zap.Stringer("path", path))
	handler(path)
}
