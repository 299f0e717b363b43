package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/narwhalmedia/watchlist/internal/infrastructure/events"
	"github.com/narwhalmedia/watchlist/pkg/config"
)

// Producer implements events.Broker over a sarama sync producer
type Producer struct {
	producer sarama.SyncProducer
	logger   *zap.Logger
}

var _ events.Broker = (*Producer)(nil)

// NewConfig returns the producer settings used for catalog events.
func NewConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	return cfg
}

// NewProducer connects to the brokers in cfg.
func NewProducer(cfg config.KafkaConfig, logger *zap.Logger) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewConfig(cfg.ClientID))
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Brokers))
	return NewProducerFrom(producer, logger), nil
}

// NewProducerFrom wraps an existing producer.
func NewProducerFrom(producer sarama.SyncProducer, logger *zap.Logger) *Producer {
	return &Producer{
		producer: producer,
		logger:   logger.Named("kafka"),
	}
}

// Publish sends one message and waits for the broker acknowledgement.
func (p *Producer) Publish(ctx context.Context, msg events.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := make([]sarama.RecordHeader, 0, len(msg.Headers)+1)
	headers = append(headers, sarama.RecordHeader{Key: []byte("event_id"), Value: []byte(msg.ID)})
	for k, v := range msg.Headers {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:   msg.Topic,
		Key:     sarama.StringEncoder(msg.Key),
		Value:   sarama.ByteEncoder(msg.Data),
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	p.logger.Debug("message sent",
		zap.String("topic", msg.Topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
