package sourcerunner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
	"reduction.dev/h2ofixture/clocks"
	"reduction.dev/h2ofixture/connectors"
)

// SpoutFactory creates one spout instance that logs to logger.
type SpoutFactory func(logger *slog.Logger) (connectors.Spout, error)

type TopologyParams struct {
	NewSpout SpoutFactory
	Sink     connectors.SinkWriter
	SinkName string
	Format   connectors.Format
	// Requested number of spout instances.
	Parallelism int
	// Per-instance record limit. Zero means no limit.
	Limit int
	Clock clocks.Clock
}

// InstanceCount caps the requested parallelism by the spout's hint.
func InstanceCount(spout connectors.Spout, requested int) int {
	requested = max(requested, 1)
	hint, ok := spout.ConfigurationHint()
	if ok && hint.MaxTaskParallelism > 0 {
		return min(requested, hint.MaxTaskParallelism)
	}
	return requested
}

// RunTopology runs independent spout instances that share one sink. Each
// instance owns its own cursor, so with more than one instance the sink
// receives every record once per instance in no particular interleaving.
func RunTopology(ctx context.Context, params TopologyParams) ([]*SourceRunner, error) {
	// The prototype is only consulted for its hint and schema, the way a host
	// inspects a component before scheduling it.
	prototype, err := params.NewSpout(slog.Default())
	if err != nil {
		return nil, fmt.Errorf("creating spout: %w", err)
	}
	count := InstanceCount(prototype, params.Parallelism)
	slog.Info("starting topology",
		"instances", count,
		"requested", params.Parallelism,
		"schema", fmt.Sprint(prototype.DeclareSchema()))

	sink := &lockedSink{sink: params.Sink}
	runners := make([]*SourceRunner, count)
	for i := range count {
		id := ksuid.New().String()
		spout, err := params.NewSpout(slog.With("instanceID", "spout-"+id[len(id)-4:]))
		if err != nil {
			return nil, fmt.Errorf("creating spout instance %d: %w", i, err)
		}
		runners[i] = New(NewParams{
			ID:       id,
			Spout:    spout,
			Sink:     sink,
			SinkName: params.SinkName,
			Format:   params.Format,
			Limit:    params.Limit,
			Clock:    params.Clock,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error {
			return r.Run(gctx)
		})
	}

	return runners, g.Wait()
}

// lockedSink serializes writes from concurrent runners.
type lockedSink struct {
	mu   sync.Mutex
	sink connectors.SinkWriter
}

func (s *lockedSink) Write(record connectors.SinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Write(record)
}
