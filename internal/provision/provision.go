// Package provision acquires remote headless-browser endpoints. The cloud
// backend talks to a browserless-compatible service; the local backend
// launches a Chrome container through Docker for development.
package provision

import "context"

// Descriptor is a normalized remote-browser connection record
type Descriptor struct {
	ConnectURL  string
	TTL         int    // seconds
	Backend     string // "cloud" or "local"
	ContainerID string // local backend only
}

// Backend provisions and releases browser endpoints
type Backend interface {
	Name() string
	Provision(ctx context.Context, ttl int, stealth bool) (*Descriptor, error)
	Release(ctx context.Context, d *Descriptor) error
}
