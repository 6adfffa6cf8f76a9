package kafka

import (
	"errors"

	"reduction.dev/h2ofixture/connectors"
)

// SinkConfig contains configuration for the Kafka sink
type SinkConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

func (c *SinkConfig) Validate() (err error) {
	if len(c.Brokers) == 0 {
		err = errors.Join(err, errors.New("kafka sink requires at least one broker"))
	}
	if c.Topic == "" {
		err = errors.Join(err, errors.New("kafka sink requires a topic"))
	}
	return err
}

func (c *SinkConfig) NewSink() (connectors.SinkWriter, error) {
	return NewSink(*c)
}

var _ connectors.SinkConfig = (*SinkConfig)(nil)
