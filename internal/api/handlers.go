package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	st := s.bridge.Stats()
	resp := HealthzResponse{
		Status:          "ok",
		UptimeSeconds:   int64(st.Uptime.Seconds()),
		QueueDepth:      st.QueueDepth,
		PendingRequests: st.PendingRequests,
		ToolCount:       st.ToolCount,
		Submitted:       st.Submitted,
		Processed:       st.Processed,
		TimedOut:        st.TimedOut,
		Cancelled:       st.Cancelled,
		Discarded:       st.Discarded,
		Skipped:         st.Skipped,
		Rejected:        st.Rejected,
		Ticks:           st.Ticks,
	}
	if s.conns != nil {
		cs := s.conns.Stats()
		resp.ActiveConnections = cs.ActiveConnections
		resp.TotalConnections = cs.TotalConnections
		resp.ProtocolErrors = cs.ProtocolErrors
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleActions handles GET /actions.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	actions := s.bridge.Actions()
	respondJSON(w, http.StatusOK, ActionsResponse{Actions: actions, Count: len(actions)})
}

// handleCommand handles POST /command. The body is one request frame; the
// response is the bridge Result exactly as a TCP client would receive it.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, err := protocol.DecodeRequest(body)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, protocol.Failf("Invalid JSON: %v", err))
		return
	}

	res, err := protocol.Encodable(s.bridge.Submit(r.Context(), req))
	if err != nil {
		s.logger.Warn("result not encodable; replying with failure", "action", req.Action, "error", err)
	}
	respondJSON(w, http.StatusOK, res)
}

// handleOpenAPI handles GET /openapi.json.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(s.bridge.Actions()))
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
