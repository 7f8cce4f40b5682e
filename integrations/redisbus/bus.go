// Package redisbus republishes committed auction events on a Redis Pub/Sub
// channel.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"domaauction/core/events"
)

const (
	publishTimeout   = 2 * time.Second
	defaultQueueSize = 512
)

type ClientConfig struct {
	Addr     string
	Password string
	DB       int
}

// Connect creates a client and pings it to verify connectivity.
func Connect(ctx context.Context, cfg ClientConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redisbus: ping: %w", err)
	}
	return rdb, nil
}

// Publisher is the subset of *redis.Client the bus needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Bus forwards events to Redis from a background worker so slow or
// unavailable brokers never stall the node.
type Bus struct {
	client  Publisher
	channel string
	logger  *slog.Logger

	queue   chan []byte
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	dropped atomic.Uint64
	sent    atomic.Uint64
}

func New(client Publisher, channel string, logger *slog.Logger) (*Bus, error) {
	if client == nil {
		return nil, fmt.Errorf("redisbus: client required")
	}
	if channel == "" {
		return nil, fmt.Errorf("redisbus: channel required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		client:  client,
		channel: channel,
		logger:  logger,
		queue:   make(chan []byte, defaultQueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	b.wg.Add(1)
	go b.run()
	return b, nil
}

// Emit implements events.Emitter.
func (b *Bus) Emit(evt events.Event) {
	payload, ok := events.Payload(evt)
	if !ok {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("redisbus encode failed", "type", payload.Type, "error", err)
		return
	}
	select {
	case b.queue <- data:
	default:
		b.dropped.Add(1)
		b.logger.Warn("redisbus queue full", "type", payload.Type)
	}
}

func (b *Bus) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			b.drain()
			return
		case data := <-b.queue:
			b.publish(data)
		}
	}
}

// drain publishes what is already queued when the bus closes.
func (b *Bus) drain() {
	for {
		select {
		case data := <-b.queue:
			b.publish(data)
		default:
			return
		}
	}
}

func (b *Bus) publish(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.dropped.Add(1)
		b.logger.Warn("redisbus publish failed", "channel", b.channel, "error", err)
		return
	}
	b.sent.Add(1)
}

// Stats reports published and dropped message counts.
func (b *Bus) Stats() (sent, dropped uint64) {
	return b.sent.Load(), b.dropped.Load()
}

func (b *Bus) Close() {
	b.cancel()
	b.wg.Wait()
}
