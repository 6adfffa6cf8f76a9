package httpapitest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"

	"reduction.dev/h2ofixture/logging"
)

// Store keeps records posted to each topic.
type Store struct {
	topics      map[string][][]byte
	topicsMutex sync.Mutex

	// Respond with this status to the next failCount requests.
	failStatus int
	failCount  int
}

func (s *Store) Write(topic string, record []byte) {
	s.topicsMutex.Lock()
	defer s.topicsMutex.Unlock()
	s.topics[topic] = append(s.topics[topic], record)
}

func (s *Store) Records(topic string) [][]byte {
	s.topicsMutex.Lock()
	defer s.topicsMutex.Unlock()
	return slices.Clone(s.topics[topic])
}

// nextFailure returns a status code if the request should fail.
func (s *Store) nextFailure() int {
	s.topicsMutex.Lock()
	defer s.topicsMutex.Unlock()
	if s.failCount == 0 {
		return 0
	}
	s.failCount--
	return s.failStatus
}

type SinkServer struct {
	httpServer *httptest.Server
	store      *Store
}

func (s *SinkServer) Close() {
	s.httpServer.Close()
}

func (s *SinkServer) URL() string {
	return s.httpServer.URL
}

// Records returns the records received on a topic.
func (s *SinkServer) Records(topic string) [][]byte {
	return s.store.Records(topic)
}

type ServerOption func(store *Store)

// WithFailures makes the first count requests fail with status.
func WithFailures(status, count int) ServerOption {
	return func(store *Store) {
		store.failStatus = status
		store.failCount = count
	}
}

func StartServer(options ...ServerOption) *SinkServer {
	store := &Store{
		topics: make(map[string][][]byte),
	}
	for _, o := range options {
		o(store)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /topics/{topicID}", func(w http.ResponseWriter, r *http.Request) {
		if status := store.nextFailure(); status != 0 {
			http.Error(w, "injected failure", status)
			return
		}

		topicID := r.PathValue("topicID")
		v, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var eventList [][]byte
		if err := json.Unmarshal(v, &eventList); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, e := range eventList {
			store.Write(topicID, e)
		}
	})

	logger := slog.With("instanceID", "httpapi")
	httpServer := httptest.NewServer(logging.NewHTTPHandler(mux, logger))
	logger.Info("start", "addr", httpServer.URL)
	return &SinkServer{
		httpServer: httpServer,
		store:      store,
	}
}
