// Package h2odata provides a test fixture spout that replays a fixed table of
// labeled animal records, one record per second, forever.
package h2odata

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"reduction.dev/h2ofixture/clocks"
	"reduction.dev/h2ofixture/connectors"
)

// PacingInterval is how long EmitNext waits before each emission.
const PacingInterval = 1000 * time.Millisecond

var ErrAlreadyInitialized = errors.New("spout already initialized")

type SpoutConfig struct {
	// Distributed is false when the topology runs in a single local process.
	// Single-process spouts ask the host for exactly one instance.
	Distributed bool
	// Clock paces emissions. Defaults to the system clock.
	Clock  clocks.Clock
	Logger *slog.Logger
}

// DefaultSpoutConfig runs in distributed mode.
func DefaultSpoutConfig() SpoutConfig {
	return SpoutConfig{Distributed: true}
}

// Spout emits the rows of its table in order, wrapping to the first row after
// the last. Each instance owns its cursor, so parallel instances each replay
// the whole table from the start.
type Spout struct {
	distributed bool
	rows        []connectors.Record
	schema      connectors.Schema
	clock       clocks.Clock
	logger      *slog.Logger

	// The index of the next row to emit. The host never calls EmitNext
	// concurrently on one instance so this isn't synchronized.
	cursor    int
	collector connectors.Collector
}

// New creates a spout over the built-in fixture table.
func New(config SpoutConfig) (*Spout, error) {
	return NewFromTable(config, Rows, Fields)
}

// NewFromTable creates a spout over the provided rows. It returns
// ErrSchemaMismatch if any row's length differs from the schema's.
func NewFromTable(config SpoutConfig, rows []connectors.Record, schema connectors.Schema) (*Spout, error) {
	if err := validateTable(rows, schema); err != nil {
		return nil, fmt.Errorf("invalid fixture table: %w", err)
	}

	if config.Clock == nil {
		config.Clock = clocks.NewSystemClock()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Spout{
		distributed: config.Distributed,
		rows:        rows,
		schema:      slices.Clone(schema),
		clock:       config.Clock,
		logger:      config.Logger,
	}, nil
}

func (s *Spout) Initialize(collector connectors.Collector) error {
	if collector == nil {
		return errors.New("spout requires a collector")
	}
	if s.collector != nil {
		return ErrAlreadyInitialized
	}
	s.collector = collector
	s.logger.Info("spout initialized", "rows", len(s.rows), "distributed", s.distributed)
	return nil
}

func (s *Spout) Shutdown() error {
	s.logger.Info("spout shut down", "cursor", s.cursor)
	return nil
}

// EmitNext waits PacingInterval then emits the row at the cursor.
func (s *Spout) EmitNext() {
	if s.collector == nil {
		panic("BUG: EmitNext called before Initialize")
	}

	s.clock.Sleep(PacingInterval)

	row := s.rows[s.cursor]
	s.cursor++
	if s.cursor == len(s.rows) {
		s.cursor = 0
	}

	s.collector.Emit(slices.Clone(row))
}

// Acknowledge is a no-op. Emitted records aren't tracked.
func (s *Spout) Acknowledge(id connectors.MessageID) {
	s.logger.Debug("ack", "id", id)
}

// Reject is a no-op. Failed records aren't replayed.
func (s *Spout) Reject(id connectors.MessageID) {
	s.logger.Debug("fail", "id", id)
}

func (s *Spout) DeclareSchema() connectors.Schema {
	return slices.Clone(s.schema)
}

// ConfigurationHint limits a single-process topology to one instance to keep
// the emission order deterministic. Distributed topologies get no hint.
func (s *Spout) ConfigurationHint() (connectors.ComponentHint, bool) {
	if s.distributed {
		return connectors.ComponentHint{}, false
	}
	return connectors.ComponentHint{MaxTaskParallelism: 1}, true
}

var _ connectors.Spout = (*Spout)(nil)
