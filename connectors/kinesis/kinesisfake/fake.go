package kinesisfake

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
)

// StartFake starts an HTTP server that speaks enough of the Kinesis JSON API
// for writing records.
func StartFake() (*httptest.Server, *Fake) {
	fk := &Fake{
		streams: make(map[string]*stream),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		route(fk, w, r)
	})

	return httptest.NewServer(mux), fk
}

func route(f *Fake, w http.ResponseWriter, r *http.Request) {
	target := strings.Split(r.Header.Get("x-amz-target"), ".")
	operation := target[len(target)-1]
	w.Header().Set("Content-Type", "application/x-amz-json-1.1")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		handleError(w, err)
		return
	}
	slog.Debug("routing", "op", operation, "req", body)

	f.mu.Lock()
	defer f.mu.Unlock()

	var resp any
	switch operation {
	case "CreateStream":
		resp, err = f.createStream(body)
	case "PutRecords":
		resp, err = f.putRecords(body)
	default:
		err = &UnsupportedOperationError{Operation: operation}
	}

	if err != nil {
		handleError(w, err)
		return
	}

	json.NewEncoder(w).Encode(resp)
}

type stream struct {
	arn    string
	shards []*shard
}

// Interal tracked state of a shard
type shard struct {
	id           string
	records      []Record
	hashKeyRange hashKeyRange
}

type hashKeyRange struct {
	startingHashKey *big.Int
	endingHashKey   *big.Int
}

func (r hashKeyRange) includes(key *big.Int) bool {
	return r.startingHashKey.Cmp(key) <= 0 && r.endingHashKey.Cmp(key) >= 0
}

type Record struct {
	Data           []byte
	PartitionKey   string
	SequenceNumber string
	ShardID        string
}

type Fake struct {
	mu      sync.Mutex
	streams map[string]*stream

	// Number of upcoming record entries to reject as throttled.
	throttleCount int
}

// CreateStream adds a stream directly and returns its ARN.
func (f *Fake) CreateStream(name string, shardCount int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addStream(name, int64(shardCount))
}

// Records returns every record written to the named stream, ordered by shard
// and then by arrival.
func (f *Fake) Records(name string) []Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.streams[name]
	if !ok {
		return nil
	}
	var records []Record
	for _, sh := range s.shards {
		records = append(records, sh.records...)
	}
	return slices.Clone(records)
}

// ThrottleRecords makes the next n record entries fail with
// ProvisionedThroughputExceededException.
func (f *Fake) ThrottleRecords(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.throttleCount = n
}

func streamARN(name string) string {
	return "arn:aws:kinesis:us-east-2:123456789012:stream/" + name
}

func streamNameFromARN(arn string) string {
	_, name, _ := strings.Cut(arn, ":stream/")
	return name
}
