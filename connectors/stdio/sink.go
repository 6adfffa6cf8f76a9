package stdio

import (
	"fmt"
	"io"
	"os"
	"sync"

	"reduction.dev/h2ofixture/connectors"
)

// SinkConfig writes records to stdout unless Writer is set.
type SinkConfig struct {
	Writer io.Writer `json:"-"`
}

func (c *SinkConfig) Validate() error {
	return nil
}

func (c *SinkConfig) NewSink() (connectors.SinkWriter, error) {
	return NewSink(*c), nil
}

var _ connectors.SinkConfig = (*SinkConfig)(nil)

// Sink writes one record value per line.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewSink(config SinkConfig) *Sink {
	out := config.Writer
	if out == nil {
		out = os.Stdout
	}
	return &Sink{out: out}
}

func (s *Sink) Write(record connectors.SinkRecord) error {
	line := make([]byte, 0, len(record.Value)+1)
	line = append(line, record.Value...)
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(line); err != nil {
		return connectors.NewTerminalError(fmt.Errorf("stdio sink write: %w", err))
	}
	return nil
}

var _ connectors.SinkWriter = (*Sink)(nil)
