package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventOrderPlaced is the event_type header on every published order.
const EventOrderPlaced = "OrderPlaced"

// Publisher announces placed orders.
type Publisher interface {
	Publish(ctx context.Context, order *Order) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Order) error { return nil }
func (NopPublisher) Close() error                          { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, order *Order) error {
	msg, err := newMessage(order)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order %s: %w", order.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// newMessage keys by order ID so that events for one order stay ordered.
func newMessage(order *Order) (kafka.Message, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal order %s: %w", order.ID, err)
	}
	return kafka.Message{
		Key:   []byte(order.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
		},
	}, nil
}
