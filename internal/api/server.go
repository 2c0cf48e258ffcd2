package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shehryarbajwa/browserpilot/internal/ratelimit"
)

// NewRouter builds the HTTP routing table. The limiter may be nil, in which
// case requests are not throttled.
func NewRouter(h *Handler, limiter *ratelimit.Limiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	if limiter != nil {
		api.Use(rateLimitMiddleware(limiter))
	}

	api.HandleFunc("/create-session", h.CreateSession).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/chat", h.Chat).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/run-task", h.RunTask).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/chat-history/{session_id}", h.ChatHistory).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/sessions", h.ListSessions).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", h.DeleteSession).Methods(http.MethodDelete, http.MethodOptions)

	api.HandleFunc("/projects", h.ListProjects).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/projects/{id}", h.GetProject).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/projects/{id}/export", h.ExportProject).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/vnc-info", h.VNCInfo).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/vnc-stream", h.VNCStream).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/vnc", h.VNCPage).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/ws/{session_id}", h.Subscribe).Methods(http.MethodGet)
	api.HandleFunc("/vnc-ws/{session_id}", h.VNCSocket).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)

	return r
}
