package config

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Rabbit holds the connection and channel used to publish like events.
type Rabbit struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Queue   string
}

func (r *Rabbit) Close() {
	if r == nil {
		return
	}
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.Conn != nil {
		r.Conn.Close()
	}
}

// InitRabbit dials RabbitMQ and declares the durable like queue. It returns
// nil when no URL is configured.
func InitRabbit(cfg RabbitMQConfig, log *zap.Logger) (*Rabbit, error) {
	if cfg.URL == "" {
		log.Info("rabbitmq url empty, skipping rabbit init")
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	queue := cfg.Queue
	if queue == "" {
		queue = "like.queue"
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare rabbitmq queue: %w", err)
	}

	log.Info("rabbitmq initialized", zap.String("queue", queue))
	return &Rabbit{Conn: conn, Channel: ch, Queue: queue}, nil
}
