package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ecocertain/metrics/internal/common/config"
	"github.com/ecocertain/metrics/internal/common/logger"
)

// MessageHandler processes a single consumed message
type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer wraps a kafka-go reader bound to one topic
type Consumer struct {
	reader *kafkago.Reader
	logger *logger.Logger
	topic  string
}

// NewConsumer creates a consumer for the given topic
func NewConsumer(cfg config.KafkaConfig, topic string, log *logger.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		logger: log,
		topic:  topic,
	}
}

// Consume reads one message and passes it to the handler. The message is
// committed even when the handler fails, matching at-most-once processing:
// a poison message must not wedge the consumer group.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return fmt.Errorf("failed to read message from %s: %w", c.topic, err)
	}

	if err := handler(ctx, msg.Key, msg.Value); err != nil {
		c.logger.Errorf("Handler failed for message on %s (offset %d): %v", c.topic, msg.Offset, err)
	}

	return nil
}

// Close closes the underlying reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Producer wraps a kafka-go writer
type Producer struct {
	writer *kafkago.Writer
	logger *logger.Logger
}

// NewProducer creates a producer for the given brokers
func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(cfg.Brokers...),
		Balancer: &kafkago.LeastBytes{},
	}

	return &Producer{writer: writer, logger: log}
}

// PublishEvent marshals the event as JSON and writes it to the topic
func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

// Close closes the underlying writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// UnmarshalEvent decodes a consumed message payload into the given struct
func UnmarshalEvent(value []byte, event interface{}) error {
	if err := json.Unmarshal(value, event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return nil
}
