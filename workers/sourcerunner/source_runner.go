package sourcerunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/segmentio/ksuid"
	"reduction.dev/h2ofixture/clocks"
	"reduction.dev/h2ofixture/connectors"
	"reduction.dev/h2ofixture/telemetry"
)

const (
	// initialBackoffDuration is the starting duration for exponential backoff
	initialBackoffDuration = 100 * time.Millisecond

	// maxBackoffDuration is the maximum duration for backoff
	maxBackoffDuration = 10 * time.Second

	// progressInterval is how often a runner logs its emitted count
	progressInterval = 10 * time.Second
)

// SourceRunner drives one spout instance the way a host task would: initialize
// it, poll it, and forward each record it emits to a sink.
type SourceRunner struct {
	ID       string
	spout    connectors.Spout
	schema   connectors.Schema
	sink     connectors.SinkWriter
	sinkName string
	format   connectors.Format
	limit    int
	clock    clocks.Clock
	emitted  atomic.Int64

	// Set by the collector when a record can't be delivered.
	writeErr error

	Logger *slog.Logger
}

type NewParams struct {
	// Optional ID, generated when empty.
	ID    string
	Spout connectors.Spout
	Sink  connectors.SinkWriter
	// Label for sink metrics.
	SinkName string
	Format   connectors.Format
	// Stop after delivering this many records. Zero means no limit.
	Limit int
	Clock clocks.Clock
}

func New(params NewParams) *SourceRunner {
	if params.Clock == nil {
		params.Clock = clocks.NewSystemClock()
	}
	if params.ID == "" {
		params.ID = ksuid.New().String()
	}
	if params.Format == "" {
		params.Format = connectors.FormatJSON
	}

	return &SourceRunner{
		ID:       params.ID,
		spout:    params.Spout,
		sink:     params.Sink,
		sinkName: params.SinkName,
		format:   params.Format,
		limit:    params.Limit,
		clock:    params.Clock,
		Logger:   slog.With("instanceID", InstanceLabel(params.ID)),
	}
}

// InstanceLabel shortens a runner ID for log lines and metric labels.
func InstanceLabel(id string) string {
	if len(id) > 4 {
		id = id[len(id)-4:]
	}
	return "source-runner-" + id
}

// Emitted returns the number of records delivered to the sink.
func (r *SourceRunner) Emitted() int {
	return int(r.emitted.Load())
}

// Run polls the spout until ctx is done, the limit is reached, or a record
// can't be delivered. Context cancellation isn't an error.
func (r *SourceRunner) Run(ctx context.Context) error {
	r.schema = r.spout.DeclareSchema()
	if len(r.schema) == 0 {
		return errors.New("spout declared an empty schema")
	}

	collector := connectors.CollectorFunc(func(record connectors.Record) {
		r.deliver(ctx, record)
	})
	if err := r.spout.Initialize(collector); err != nil {
		return fmt.Errorf("initializing spout: %w", err)
	}
	r.Logger.Info("started", "fields", len(r.schema), "limit", r.limit)

	defer func() {
		if err := r.spout.Shutdown(); err != nil {
			r.Logger.Warn("spout shutdown failed", "err", err)
		}
		r.Logger.Info("stopped", "emitted", r.Emitted())
	}()

	progress := r.clock.Every(progressInterval, func() {
		r.Logger.Info("progress", "emitted", r.Emitted())
	}, "progress-"+r.ID)
	defer progress.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.limit > 0 && r.Emitted() >= r.limit {
			return nil
		}

		r.spout.EmitNext()

		if r.writeErr != nil {
			return r.writeErr
		}
	}
}

// deliver encodes a record and writes it to the sink, retrying retryable
// errors until ctx is done.
func (r *SourceRunner) deliver(ctx context.Context, record connectors.Record) {
	if len(record) != len(r.schema) {
		r.writeErr = fmt.Errorf("record has %d fields but schema declares %d", len(record), len(r.schema))
		return
	}

	sinkRecord, err := connectors.EncodeRecord(r.format, record)
	if err != nil {
		r.writeErr = err
		return
	}

	for failures := 0; ; failures++ {
		if err := r.backoff(ctx, failures); err != nil {
			r.Logger.Warn("dropping record on shutdown", "id", sinkRecord.Key)
			return
		}

		start := time.Now()
		err := r.sink.Write(sinkRecord)
		retryable := connectors.IsRetryable(err)
		telemetry.ObserveSinkWrite(r.sinkName, time.Since(start), err, retryable)

		if err == nil {
			r.emitted.Add(1)
			telemetry.RecordEmitted(InstanceLabel(r.ID))
			return
		}
		if !retryable {
			r.writeErr = fmt.Errorf("writing record %s: %w", sinkRecord.Key, err)
			return
		}
		r.Logger.Warn("sink write failed, will retry", "err", err, "failures", failures+1)
	}
}

// backoff waits on the runner's clock for an increasingly longer duration as
// failures accumulate, up to a maximum duration. It returns ctx's error if ctx
// ends first.
func (r *SourceRunner) backoff(ctx context.Context, consecutiveFailures int) error {
	if consecutiveFailures == 0 {
		return ctx.Err()
	}
	return r.clock.SleepContext(ctx, backoffDuration(consecutiveFailures))
}

func backoffDuration(consecutiveFailures int) time.Duration {
	factor := math.Pow(2, float64(consecutiveFailures))
	return min(time.Duration(float64(initialBackoffDuration)*factor), maxBackoffDuration)
}
