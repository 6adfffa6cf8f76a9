package config

import (
	"errors"
	"fmt"

	"reduction.dev/h2ofixture/connectors"
	"reduction.dev/h2ofixture/connectors/httpapi"
	"reduction.dev/h2ofixture/connectors/kafka"
	"reduction.dev/h2ofixture/connectors/kinesis"
	"reduction.dev/h2ofixture/connectors/stdio"
)

// The object representing a fixture run.
type Config struct {
	// Distributed mode drops the spout's single-instance hint.
	Distributed bool `json:"distributed"`
	// The number of spout instances to request. A spout's hint may lower it.
	Parallelism int `json:"parallelism"`
	// Stop each instance after this many records. Zero runs until stopped.
	Limit  int    `json:"limit"`
	Format string `json:"format"`
	Sink   Sink   `json:"sink"`
}

// Sink holds exactly one sink configuration.
type Sink struct {
	Stdio   *stdio.SinkConfig   `json:"stdio,omitempty"`
	HTTPAPI *httpapi.SinkConfig `json:"httpApi,omitempty"`
	Kinesis *kinesis.SinkConfig `json:"kinesis,omitempty"`
	Kafka   *kafka.SinkConfig   `json:"kafka,omitempty"`
}

// Default runs one local spout instance writing JSON lines to stdout.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Parallelism == 0 {
		c.Parallelism = 1
	}
	if c.Format == "" {
		c.Format = string(connectors.FormatJSON)
	}
	if c.Sink.configs() == nil {
		c.Sink.Stdio = &stdio.SinkConfig{}
	}
}

func (c *Config) Validate() (err error) {
	if c.Parallelism < 1 {
		err = errors.Join(err, fmt.Errorf("parallelism must be at least 1 but was %d", c.Parallelism))
	}
	if c.Limit < 0 {
		err = errors.Join(err, fmt.Errorf("limit must not be negative but was %d", c.Limit))
	}
	if _, ferr := connectors.ParseFormat(c.Format); ferr != nil {
		err = errors.Join(err, ferr)
	}

	sink, serr := c.Sink.Config()
	if serr != nil {
		return errors.Join(err, serr)
	}
	return errors.Join(err, sink.Validate())
}

// RecordFormat returns the parsed record format. Call after Validate.
func (c *Config) RecordFormat() connectors.Format {
	f, err := connectors.ParseFormat(c.Format)
	if err != nil {
		panic(fmt.Sprintf("BUG: unvalidated format: %v", err))
	}
	return f
}

// Config returns the one configured sink.
func (s Sink) Config() (connectors.SinkConfig, error) {
	configs := s.configs()
	if len(configs) != 1 {
		return nil, fmt.Errorf("need exactly 1 sink but had %d", len(configs))
	}
	return configs[0], nil
}

func (s Sink) configs() []connectors.SinkConfig {
	var configs []connectors.SinkConfig
	if s.Stdio != nil {
		configs = append(configs, s.Stdio)
	}
	if s.HTTPAPI != nil {
		configs = append(configs, s.HTTPAPI)
	}
	if s.Kinesis != nil {
		configs = append(configs, s.Kinesis)
	}
	if s.Kafka != nil {
		configs = append(configs, s.Kafka)
	}
	return configs
}

// Name labels the configured sink in logs and metrics.
func (s Sink) Name() string {
	switch {
	case s.Stdio != nil:
		return "stdio"
	case s.HTTPAPI != nil:
		return "httpApi"
	case s.Kinesis != nil:
		return "kinesis"
	case s.Kafka != nil:
		return "kafka"
	}
	return "none"
}
