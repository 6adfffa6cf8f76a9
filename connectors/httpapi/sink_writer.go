package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"reduction.dev/h2ofixture/connectors"
	"reduction.dev/h2ofixture/telemetry"
)

type SinkConfig struct {
	Addr  string `json:"addr"`
	Topic string `json:"topic"`
	// Per-request timeout. Defaults to one second.
	Timeout time.Duration `json:"-"`
}

func (c *SinkConfig) Validate() error {
	err := connectors.ValidateURL(c.Addr)
	if c.Topic == "" {
		err = errors.Join(err, errors.New("httpApi sink requires a topic"))
	}
	return err
}

func (c *SinkConfig) NewSink() (connectors.SinkWriter, error) {
	return NewSink(*c), nil
}

var _ connectors.SinkConfig = (*SinkConfig)(nil)

type SinkWriter struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

// Create a new HTTPAPI sink that posts records to a topic on the configured
// host address.
func NewSink(config SinkConfig) *SinkWriter {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 1 * time.Second
	}
	return &SinkWriter{
		url:        config.Addr + "/topics/" + url.PathEscape(config.Topic),
		timeout:    timeout,
		httpClient: &http.Client{Transport: telemetry.NewMetricsTransport("httpapi-sink", nil)},
	}
}

// Write posts a single record. Server errors and transport failures are
// retryable; client errors are not.
func (s *SinkWriter) Write(record connectors.SinkRecord) error {
	// The API accepts a list of records to allow batching later.
	eventList, err := json.Marshal([][]byte{record.Value})
	if err != nil {
		return connectors.NewTerminalError(fmt.Errorf("httpapi.Write failed eventList Marshal: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(eventList))
	if err != nil {
		return connectors.NewTerminalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return connectors.NewRetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("failed http request: %d response from %s, %s", resp.StatusCode, s.url, bytes.TrimSpace(msg))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return connectors.NewRetryableError(err)
		}
		return connectors.NewTerminalError(err)
	}

	return nil
}

var _ connectors.SinkWriter = (*SinkWriter)(nil)
