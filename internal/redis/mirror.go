// Package redis mirrors published resource values into a Redis hash so other
// services can read the door state without talking to the broker.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/sweeney/sesame-gateway/internal/resource"
)

// DefaultKey is the hash the values are written to when none is configured.
const DefaultKey = "sesame:resources"

// ErrQueueFull is returned by Publish when the write queue is saturated.
var ErrQueueFull = errors.New("redis mirror: queue full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("redis mirror: closed")

// Config holds the connection and queue settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	Key       string
	QueueSize int
	Timeout   time.Duration // per write, default 2s
}

// NewClient creates a Redis client from cfg.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping checks the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Mirror writes resource values to a hash (field = path, value = text) from
// a single worker goroutine. Publish only enqueues and never blocks.
type Mirror struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	log     *zap.Logger

	queue chan resource.Update
	stop      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	closeOnce sync.Once
}

// NewMirror creates a mirror on client and starts its worker.
func NewMirror(client *redis.Client, cfg Config, log *zap.Logger) *Mirror {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	m := &Mirror{
		client:  client,
		key:     cfg.Key,
		timeout: cfg.Timeout,
		log:     log.With(zap.String("component", "redis")),
		queue:   make(chan resource.Update, cfg.QueueSize),
		stop:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// Key returns the hash key values are written to.
func (m *Mirror) Key() string {
	return m.key
}

// Publish implements resource.Publisher.
func (m *Mirror) Publish(path resource.Path, value resource.Value) error {
	select {
	case <-m.stop:
		return ErrClosed
	default:
	}
	select {
	case m.queue <- resource.Update{Path: path, Value: value}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Clear deletes the fields of paths. It is meant for shutdown: the mirror
// stops accepting values and writes out its queue first, so nothing queued
// can bring a cleared field back.
func (m *Mirror) Clear(ctx context.Context, paths []resource.Path) error {
	m.flush()
	if len(paths) == 0 {
		return nil
	}
	fields := make([]string, len(paths))
	for i, p := range paths {
		fields[i] = p.String()
	}
	if err := m.client.HDel(ctx, m.key, fields...).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", m.key, err)
	}
	return nil
}

// Close stops the worker after the queued writes are done and closes the
// client.
func (m *Mirror) Close() error {
	m.flush()
	var err error
	m.closeOnce.Do(func() {
		err = m.client.Close()
	})
	return err
}

// flush stops the worker once the queue is empty. Publish fails with
// ErrClosed afterwards.
func (m *Mirror) flush() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}

func (m *Mirror) run() {
	defer m.wg.Done()
	for {
		select {
		case u := <-m.queue:
			m.write(u)
		case <-m.stop:
			for {
				select {
				case u := <-m.queue:
					m.write(u)
				default:
					return
				}
			}
		}
	}
}

func (m *Mirror) write(u resource.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.client.HSet(ctx, m.key, u.Path.String(), u.Value.String()).Err(); err != nil {
		m.log.Error("mirror write failed", zap.Stringer("path", u.Path), zap.Error(err))
		return
	}
	m.log.Debug("mirrored", zap.Stringer("path", u.Path), zap.Stringer("value", u.Value))
}
