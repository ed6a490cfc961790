package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultLikeQueue = "like.queue"
	likeEventType    = "article.liked"
)

// AMQPChannel is the part of *amqp.Channel the publisher needs.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// LikePublisher sends committed likes to a RabbitMQ queue through the default
// exchange.
type LikePublisher struct {
	ch    AMQPChannel
	queue string
}

func NewLikePublisher(ch AMQPChannel, queue string) *LikePublisher {
	if queue == "" {
		queue = DefaultLikeQueue
	}
	return &LikePublisher{ch: ch, queue: queue}
}

func (p *LikePublisher) ArticleLiked(ctx context.Context, event LikeEvent) error {
	msg, err := likeMessage(event)
	if err != nil {
		return err
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish like event: %w", err)
	}
	return nil
}

func likeMessage(event LikeEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode like event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.LikedAt,
		Type:         likeEventType,
		Body:         body,
	}, nil
}
