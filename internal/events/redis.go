// Package events forwards store events to other processes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message is the published form of a store event. File content is left out.
type Message struct {
	Kind      service.EventKind `json:"kind"`
	FileID    string            `json:"file_id,omitempty"`
	Name      string            `json:"name,omitempty"`
	MediaType string            `json:"type,omitempty"`
	Size      int64             `json:"size,omitempty"`
	Stored    bool              `json:"stored"`
	At        time.Time         `json:"at"`
}

func NewMessage(ev service.Event) Message {
	return Message{
		Kind:      ev.Kind,
		FileID:    ev.File.ID,
		Name:      ev.File.Name,
		MediaType: ev.File.MediaType,
		Size:      ev.File.Size,
		Stored:    ev.File.Stored,
		At:        ev.At,
	}
}

// RedisPublisher publishes every store event as JSON on a Redis channel.
// Publishing failures are logged and never reach the store.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	logger  *zap.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// HandleEvent implements service.Observer.
func (p *RedisPublisher) HandleEvent(ctx context.Context, ev service.Event) {
	payload, err := json.Marshal(NewMessage(ev))
	if err != nil {
		p.logger.Error("encode event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("publish event failed",
			zap.String("channel", p.channel),
			zap.String("kind", string(ev.Kind)),
			zap.String("file_id", ev.File.ID),
			zap.Error(err))
	}
}
