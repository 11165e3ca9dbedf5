// Package push forwards composed notifications to the delivery channel. The
// core never inspects delivery results beyond logging; the channel consumer
// (push relay, mobile gateway) owns actual delivery.
package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"discrescue/internal/notification"
)

// Message is the wire shape published to the delivery channel.
type Message struct {
	UserID  string               `json:"user_id"`
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Payload notification.Payload `json:"payload"`
}

// RedisPublisher forwards notifications over a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Push(ctx context.Context, n *notification.Notification) error {
	msg, err := json.Marshal(Message{
		UserID:  n.UserID.String(),
		Title:   n.Title,
		Body:    n.Body,
		Payload: n.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish push message: %w", err)
	}
	return nil
}
