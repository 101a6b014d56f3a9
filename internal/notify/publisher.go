// Package notify announces artifact version changes on a Redis channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tradepulse/config"
)

const (
	publishTimeout = 2 * time.Second
	queueSize      = 64
)

// Change is the message published for every new artifact version.
type Change struct {
	Name    string `json:"name"`
	Version int64  `json:"version"`
}

// Publisher sends changes from its own goroutine so callers never wait on
// Redis.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger

	queue     chan Change
	ctx       context.Context
	cancel    context.CancelFunc
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New connects to Redis and verifies the connection.
func New(cfg config.RedisConfig, logger *zap.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewWithClient(client, cfg.Channel, logger), nil
}

func NewWithClient(client *redis.Client, channel string, logger *zap.Logger) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Publisher{
		client:  client,
		channel: channel,
		logger:  logger.Named("notify"),
		queue:   make(chan Change, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case c := <-p.queue:
			ctx, cancel := context.WithTimeout(p.ctx, publishTimeout)
			if err := p.Publish(ctx, c); err != nil {
				p.logger.Warn("change notification failed", zap.String("artifact", c.Name), zap.Error(err))
			}
			cancel()
		}
	}
}

// Publish sends one change message.
func (p *Publisher) Publish(ctx context.Context, c Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", c.Name, err)
	}
	return nil
}

// Notify queues a change without blocking. When the queue is full the change
// is dropped and logged.
func (p *Publisher) Notify(name string, version int64) {
	select {
	case <-p.stop:
		return
	default:
	}
	select {
	case p.queue <- Change{Name: name, Version: version}:
	default:
		p.logger.Warn("change notification dropped, queue full", zap.String("artifact", name))
	}
}

// Close stops the sender and closes the Redis client. Queued changes that
// were not yet sent are discarded.
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.stop)
		p.cancel()
		<-p.done
		err = p.client.Close()
	})
	return err
}
