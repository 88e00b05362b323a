package mq

import "context"

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. A non-nil error nacks the delivery so the
// broker redelivers it.
type Handler func(ctx context.Context, msg Message) error

// Broker abstracts the publish/subscribe operations the app needs. Two
// implementations exist: RabbitMQ and Google Cloud Pub/Sub.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}
