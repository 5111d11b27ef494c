package httpapi

import "net/http"

// opsStats reports realtime and process gauges. Authenticated like every
// other route; an admin-only split belongs to the surrounding portal, not
// this layer.
func (s *Server) opsStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}
