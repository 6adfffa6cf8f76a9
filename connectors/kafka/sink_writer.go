package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"reduction.dev/h2ofixture/connectors"
)

// SinkWriter writes records to a Kafka topic keyed by record ID.
type SinkWriter struct {
	client  *kgo.Client
	topic   string
	timeout time.Duration
}

// NewSink creates a new Kafka SinkWriter.
func NewSink(config SinkConfig) (*SinkWriter, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(config.Brokers...),
		kgo.DefaultProduceTopic(config.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &SinkWriter{
		client:  client,
		topic:   config.Topic,
		timeout: 10 * time.Second,
	}, nil
}

// Write produces a single record and waits for the broker to acknowledge it.
func (s *SinkWriter) Write(record connectors.SinkRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.client.ProduceSync(ctx, &kgo.Record{
		Topic: s.topic,
		Key:   []byte(record.Key),
		Value: record.Value,
	}).FirstErr()
	if err == nil {
		return nil
	}

	err = fmt.Errorf("kafka SinkWriter.Write failed: %w", err)
	if kerr.IsRetriable(err) || errors.Is(err, context.DeadlineExceeded) {
		return connectors.NewRetryableError(err)
	}
	return connectors.NewTerminalError(err)
}

// Close flushes buffered records and closes the client.
func (s *SinkWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}

var _ connectors.SinkWriter = (*SinkWriter)(nil)
