package events

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/noah-isme/records-panel/pkg/config"
)

const publishTimeout = 5 * time.Second

// Producer publishes keyed messages to a single Kafka topic.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a synchronous writer. SASL/PLAIN over TLS is used only
// when credentials are configured; local brokers run without either.
func NewProducer(cfg config.EventsConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}

	transport := &kafka.Transport{}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			Transport:    transport,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// Publish writes one message. Messages with the same key land on the same
// partition, which keeps per-record ordering.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	if p == nil || p.writer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
