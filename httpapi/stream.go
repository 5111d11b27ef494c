package httpapi

import (
	"net/http"
	"time"

	"bell-registry/domain/event"
	"bell-registry/errors"
)

// stream serves one long-lived event stream. The handler registers the
// connection, pushes a "connected" event carrying the connection id, then
// blocks for the connection's lifetime emitting heartbeats. Fanout writes
// arrive through the registered sink from other goroutines.
//
// The heartbeat both detects half-open transports (proxies silently drop
// idle connections) and keeps intermediaries from buffering the response.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(s.log, w, errors.ErrUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Tells nginx-style proxies not to buffer this response.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := newSSEWriter(w, flusher)
	connectionID := s.registry.Register(identity.UserID, sink)
	// The registry's Remove is idempotent, so reaching this defer after a
	// failed heartbeat already cleaned up is harmless.
	defer s.registry.Remove(identity.UserID, connectionID)
	// Closed before Remove: a publisher that snapshotted this sink while
	// it was registered may still call Send after the handler returns, and
	// must get an error instead of a write on a reclaimed ResponseWriter.
	defer sink.Close()

	s.log.Debug("Stream opened", "user", identity.UserID, "connection", connectionID)

	if err := sink.Send(event.Connected(connectionID)); err != nil {
		return
	}

	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("Stream closed by client",
				"user", identity.UserID, "connection", connectionID)
			return
		case at := <-ticker.C:
			if err := sink.Send(event.Heartbeat(at)); err != nil {
				// Transport gone: same cleanup as a client abort.
				s.log.Debug("Heartbeat write failed, dropping stream",
					"user", identity.UserID, "connection", connectionID, "err", err)
				return
			}
		}
	}
}
