package connectorstest

import (
	"errors"
	"slices"
	"sync"

	"reduction.dev/h2ofixture/connectors"
)

// RecordingCollector keeps every record emitted to it.
type RecordingCollector struct {
	mu      sync.Mutex
	records []connectors.Record
}

func (c *RecordingCollector) Emit(record connectors.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
}

func (c *RecordingCollector) Records() []connectors.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

var _ connectors.Collector = (*RecordingCollector)(nil)

// RecordingSink keeps every record written to it. Set FailWith to make the
// next FailCount writes return that error.
type RecordingSink struct {
	mu        sync.Mutex
	records   []connectors.SinkRecord
	FailWith  error
	FailCount int
	Attempts  int
}

func (s *RecordingSink) Write(record connectors.SinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Attempts++
	if s.FailCount > 0 {
		s.FailCount--
		if s.FailWith == nil {
			return errors.New("recording sink failure")
		}
		return s.FailWith
	}

	s.records = append(s.records, record)
	return nil
}

func (s *RecordingSink) Records() []connectors.SinkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Values returns the written record values as strings.
func (s *RecordingSink) Values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([]string, len(s.records))
	for i, r := range s.records {
		values[i] = string(r.Value)
	}
	return values
}

var _ connectors.SinkWriter = (*RecordingSink)(nil)
