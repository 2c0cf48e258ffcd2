package models

import "time"

// SessionStatus represents the current state of a browser session
type SessionStatus string

const (
	StatusRunning   SessionStatus = "RUNNING"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusError     SessionStatus = "ERROR"
	StatusTimedOut  SessionStatus = "TIMED_OUT"
)

// Session groups chat turns with an optional live remote-browser connection.
// The ID is generated locally so chat-history keys outlive the provider's
// session lifetime.
type Session struct {
	ID          string        `json:"id"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	TTL         int           `json:"ttl"` // seconds
	ConnectURL  string        `json:"wsEndpoint"`
	Backend     string        `json:"backend"` // "cloud" or "local"
	ContainerID string        `json:"-"`       // set only for the local backend
}

// CreateSessionRequest is the payload for creating a new session
type CreateSessionRequest struct {
	TTL     int  `json:"ttl,omitempty"`
	Stealth bool `json:"stealth,omitempty"`
}

// CreateSessionResponse is what the client needs to drive the browser
type CreateSessionResponse struct {
	WsEndpoint string `json:"wsEndpoint"`
	SessionID  string `json:"sessionId"`
}
