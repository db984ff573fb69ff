package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"stream_server/server/common/config"
	commonlog "stream_server/server/common/log"
)

const (
	RoutingChatMessageCreated    = "chat.message.created"
	RoutingVideoCreated          = "video.created"
	RoutingVideoUpdated          = "video.updated"
	RoutingVideoDeleted          = "video.deleted"
	RoutingVideoDeleteIncomplete = "video.delete_incomplete"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NopPublisher drops events. Used when USE_MQ is off.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func NewConnection(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    time.Now(),
	})
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
}

// FromConfig returns the broker publisher when USE_MQ is on and a
// NopPublisher otherwise. The returned func releases the connection.
func FromConfig(cfg config.MQ) (Publisher, func(), error) {
	if !cfg.Enabled {
		return NopPublisher{}, func() {}, nil
	}
	conn, err := NewConnection(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mq: %w", err)
	}
	pub, err := NewAMQPPublisher(conn, cfg.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	commonlog.Infof("event=mq action=connect status=ok exchange=%s", cfg.Exchange)
	return pub, func() {
		pub.Close()
		_ = conn.Close()
	}, nil
}
