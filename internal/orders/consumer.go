package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/logging"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer copies published orders into a Repository, so that every
// storefront publishing to the topic ends up in one shared ledger.
type Consumer struct {
	repo   Repository
	reader messageReader
	logger *zap.Logger
}

func NewConsumer(repo Repository, topic, groupID string, logger *zap.Logger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{repo: repo, reader: reader, logger: logging.OrNop(logger)}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("error reading message", zap.Error(err))
			continue
		}
		if err := c.handle(ctx, m); err != nil {
			c.logger.Error("failed to record order", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// handle records one message. Duplicates and foreign event types are skipped.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	if eventType(m) != EventOrderPlaced {
		c.logger.Debug("skipping event", zap.String("event_type", eventType(m)))
		return nil
	}

	var order Order
	if err := json.Unmarshal(m.Value, &order); err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	if err := c.repo.Create(ctx, &order); err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			c.logger.Info("order already recorded, skipping", zap.String("order_id", order.ID.String()))
			return nil
		}
		return err
	}
	c.logger.Info("order recorded", zap.String("order_id", order.ID.String()), zap.String("username", order.Username))
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
