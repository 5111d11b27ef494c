package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"bell-registry/domain/event"
)

var errSinkClosed = errors.New("stream connection closed")

// sseWriter adapts an http.ResponseWriter into a contract.StreamSink,
// framing each event as "data: <JSON>\n\n". The mutex serializes the
// heartbeat loop and fanout goroutines, which write concurrently.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

func newSSEWriter(w http.ResponseWriter, flusher http.Flusher) *sseWriter {
	return &sseWriter{w: w, flusher: flusher}
}

// Close marks the sink dead. The stream handler calls it on every exit
// path: once the handler returns, net/http reclaims the ResponseWriter,
// and a fanout goroutine still holding this sink from an earlier registry
// snapshot must get an error instead of a write on freed transport state.
func (s *sseWriter) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *sseWriter) Send(e event.StreamEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSinkClosed
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	// Flush after every event so frames traverse proxies immediately
	// instead of sitting in a response buffer.
	s.flusher.Flush()
	return nil
}
