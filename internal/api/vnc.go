package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// VNCInfo handles GET /api/vnc-info. The payload is descriptive: the viewer
// runs outside this process and the URL comes from configuration.
func (h *Handler) VNCInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"vnc_url": h.opts.VNCURL,
		"status":  "available",
	})
}

// VNCStream handles GET /api/vnc-stream, pointing clients at the per-session
// WebSocket endpoint.
func (h *Handler) VNCStream(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"stream_endpoint": "/api/vnc-ws/{session_id}",
		"vnc_url":         h.opts.VNCURL,
	})
}

// VNCPage handles GET /api/vnc by redirecting to the configured viewer
func (h *Handler) VNCPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.opts.VNCURL, http.StatusTemporaryRedirect)
}

// Subscribe handles WS /api/ws/{session_id}
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.hub.Subscribe(w, r, mux.Vars(r)["session_id"])
}

// VNCSocket handles WS /api/vnc-ws/{session_id}
func (h *Handler) VNCSocket(w http.ResponseWriter, r *http.Request) {
	h.hub.Echo(w, r, mux.Vars(r)["session_id"])
}
