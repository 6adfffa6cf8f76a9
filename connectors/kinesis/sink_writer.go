package kinesis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"reduction.dev/h2ofixture/connectors"
)

// SinkWriter puts each record on a Kinesis stream partitioned by its key.
type SinkWriter struct {
	client    *Client
	streamARN string
	timeout   time.Duration
}

func NewSink(config SinkConfig) (*SinkWriter, error) {
	client := config.Client
	if client == nil {
		var err error
		client, err = NewClient(&NewClientParams{
			Endpoint: config.Endpoint,
			Region:   config.Region,
			Profile:  config.Profile,
		})
		if err != nil {
			return nil, err
		}
	}

	return &SinkWriter{
		client:    client,
		streamARN: config.StreamARN,
		timeout:   10 * time.Second,
	}, nil
}

func (s *SinkWriter) Write(record connectors.SinkRecord) error {
	key := record.Key
	if key == "" {
		// Kinesis requires a partition key
		key = "none"
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.client.PutRecordBatch(ctx, s.streamARN, []Record{{Key: key, Data: record.Value}})
	if err == nil {
		return nil
	}

	err = fmt.Errorf("kinesis SinkWriter.Write: %w", err)
	var notFound *types.ResourceNotFoundException
	var invalidArg *types.InvalidArgumentException
	if errors.As(err, &notFound) || errors.As(err, &invalidArg) {
		return connectors.NewTerminalError(err)
	}
	return connectors.NewRetryableError(err)
}

var _ connectors.SinkWriter = (*SinkWriter)(nil)
