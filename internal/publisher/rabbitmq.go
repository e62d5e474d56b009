// Package publisher announces imported and updated posts on a RabbitMQ exchange.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"post_syncer/internal/domain"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

// PostMessage is the JSON body of every published event.
type PostMessage struct {
	Action      string    `json:"action"`
	PostID      int64     `json:"post_id"`
	SourceID    int64     `json:"source_id"`
	PostType    string    `json:"post_type"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	AuthorID    int64     `json:"author_id"`
	ThumbnailID *int64    `json:"thumbnail_id,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With("component", "publisher"),
	}, nil
}

// declareTopology sets up a durable direct exchange with one bound durable queue.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// NewPostMessage builds the event for a post that was just created (isNew) or updated.
func NewPostMessage(post *domain.Post, isNew bool, now time.Time) PostMessage {
	action := ActionUpdate
	if isNew {
		action = ActionCreate
	}

	return PostMessage{
		Action:      action,
		PostID:      post.ID,
		SourceID:    post.SourceID,
		PostType:    post.PostType,
		Title:       post.Title,
		Status:      post.Status,
		AuthorID:    post.AuthorID,
		ThumbnailID: post.ThumbnailID,
		PublishedAt: post.PublishedAt,
		Timestamp:   now.UTC(),
	}
}

func (r *RabbitMQ) Publish(ctx context.Context, post *domain.Post, isNew bool) error {
	now := time.Now()
	msg := NewPostMessage(post, isNew, now)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         msg.Action,
			Headers:      amqp.Table{"post_type": post.PostType},
			Body:         body,
			Timestamp:    now,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published post",
		"post_id", post.ID,
		"source_id", post.SourceID,
		"action", msg.Action,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
