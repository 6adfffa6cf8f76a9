package kinesis

import (
	"errors"
	"fmt"
	"strings"

	"reduction.dev/h2ofixture/connectors"
)

// SinkConfig contains configuration for the Kinesis sink connector
type SinkConfig struct {
	StreamARN string `json:"streamArn"`
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	Profile   string `json:"profile"`
	Client    *Client `json:"-"`
}

func (c *SinkConfig) Validate() (err error) {
	if !strings.HasPrefix(c.StreamARN, "arn:") {
		err = errors.Join(err, fmt.Errorf("invalid kinesis sink streamArn: %q", c.StreamARN))
	}
	if c.Endpoint != "" {
		if uerr := connectors.ValidateURL(c.Endpoint); uerr != nil {
			err = errors.Join(err, fmt.Errorf("invalid kinesis sink endpoint: %w", uerr))
		}
	}
	return err
}

func (c *SinkConfig) NewSink() (connectors.SinkWriter, error) {
	return NewSink(*c)
}

var _ connectors.SinkConfig = (*SinkConfig)(nil)
