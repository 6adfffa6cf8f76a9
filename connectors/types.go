package connectors

// Record is one fixed-shape row of field values. Its length always matches the
// Schema declared by the Spout that emitted it.
type Record []string

// Schema is the ordered list of field names describing every Record a Spout
// emits.
type Schema []string

// MessageID correlates an emitted record with the host's ack or fail
// callback. Spouts that don't track delivery ignore it.
type MessageID any

// Collector receives records from a Spout. The host runtime provides it when
// initializing the Spout.
type Collector interface {
	Emit(record Record)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc func(record Record)

func (f CollectorFunc) Emit(record Record) {
	f(record)
}

// ComponentHint carries scheduling requests a Spout makes to the host.
type ComponentHint struct {
	// The maximum number of concurrent instances the host should run.
	MaxTaskParallelism int
}

// Spout is the contract a host runtime drives: construct, Initialize once,
// poll EmitNext repeatedly, then Shutdown once. The host never calls EmitNext
// concurrently on the same instance.
type Spout interface {
	// Initialize hands the Spout its collector and starts emission.
	Initialize(collector Collector) error

	// Shutdown is called once when the host stops the Spout.
	Shutdown() error

	// EmitNext emits zero or one record to the collector.
	EmitNext()

	// Acknowledge reports that the record with the given ID was fully processed.
	Acknowledge(id MessageID)

	// Reject reports that the record with the given ID failed downstream.
	Reject(id MessageID)

	// DeclareSchema returns the field names of every emitted record. The host
	// calls it once before emission begins.
	DeclareSchema() Schema

	// ConfigurationHint returns scheduling requests for the host. The bool is
	// false when the Spout defers to the host's defaults.
	ConfigurationHint() (ComponentHint, bool)
}

// SinkRecord is an encoded record ready for a sink. Key is used by sinks that
// partition their writes.
type SinkRecord struct {
	Key   string
	Value []byte
}

type SinkWriter interface {
	Write(record SinkRecord) error
}

type SinkConfig interface {
	Validate() error
	NewSink() (SinkWriter, error)
}
