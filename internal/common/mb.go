package common

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	UserExchange     Exchange   = "user_exchange"
	UserCreatedQueue Queue      = "user_created_queue"
	UserCreatedKey   BindingKey = "user.created"

	PostExchange   Exchange   = "post_exchange"
	PostEventQueue Queue      = "post_event_queue"
	PostCreatedKey BindingKey = "post.created"
	PostUpdatedKey BindingKey = "post.updated"
	PostDeletedKey BindingKey = "post.deleted"
)

type MessageBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	return &MessageBroker{conn: conn, ch: ch}, nil
}

// Close closes the channel and the connection of the message broker.
func (mb *MessageBroker) Close() error {
	if err := mb.ch.Close(); err != nil {
		return err
	}

	return mb.conn.Close()
}

func (mb *MessageBroker) setupExchange(exchange Exchange, bindings map[Queue][]BindingKey) error {
	err := mb.ch.ExchangeDeclare(string(exchange), "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	for queue, keys := range bindings {
		_, err = mb.ch.QueueDeclare(string(queue), true, false, false, false, nil)
		if err != nil {
			return err
		}

		for _, key := range keys {
			err = mb.ch.QueueBind(string(queue), string(key), string(exchange), false, nil)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func SetupUserExchange(mb *MessageBroker) error {
	return mb.setupExchange(UserExchange, map[Queue][]BindingKey{
		UserCreatedQueue: {UserCreatedKey},
	})
}

// SetupPostExchange declares the post exchange and binds every lifecycle key
// to a single event queue so that one consumer sees all post events.
func SetupPostExchange(mb *MessageBroker) error {
	return mb.setupExchange(PostExchange, map[Queue][]BindingKey{
		PostEventQueue: {PostCreatedKey, PostUpdatedKey, PostDeletedKey},
	})
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}
