// Package session keeps the registry of live browser sessions. Session IDs
// are generated locally so chat-history keys are decoupled from provider
// session lifetimes.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/shehryarbajwa/browserpilot/internal/provision"
	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

// maxConcurrentTurns bounds browser-backed turns running at once per session
const maxConcurrentTurns = 2

// Manager handles session lifecycle: provisioning, registry, TTL expiry
type Manager struct {
	sessions sync.Map // id -> *models.Session
	slots    map[string]*semaphore.Weighted
	mu       sync.Mutex
	backend  provision.Backend
}

// NewManager creates a session manager over the given provisioning backend
func NewManager(backend provision.Backend) *Manager {
	return &Manager{
		slots:   make(map[string]*semaphore.Weighted),
		backend: backend,
	}
}

// Create provisions a remote browser and registers a session for it.
// Provisioning failures are surfaced to the caller; nothing is registered on
// failure.
func (m *Manager) Create(ctx context.Context, ttl int, stealth bool) (*models.Session, error) {
	if ttl <= 0 {
		ttl = 300
	}

	desc, err := m.backend.Provision(ctx, ttl, stealth)
	if err != nil {
		return nil, fmt.Errorf("failed to provision browser: %w", err)
	}

	now := time.Now()
	sess := &models.Session{
		ID:          uuid.New().String(),
		Status:      models.StatusRunning,
		StartedAt:   now,
		ExpiresAt:   now.Add(time.Duration(ttl) * time.Second),
		TTL:         ttl,
		ConnectURL:  desc.ConnectURL,
		Backend:     desc.Backend,
		ContainerID: desc.ContainerID,
	}

	m.sessions.Store(sess.ID, sess)
	go m.expireAfter(sess)

	log.Info("session: created", "id", sess.ID, "backend", sess.Backend, "ttl", ttl)
	return sess, nil
}

// Get retrieves a session by ID
func (m *Manager) Get(id string) (*models.Session, error) {
	value, ok := m.sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("session not found")
	}
	return value.(*models.Session), nil
}

// List returns all sessions, optionally filtered by status
func (m *Manager) List(status models.SessionStatus) []*models.Session {
	var sessions []*models.Session
	m.sessions.Range(func(_, value interface{}) bool {
		sess := value.(*models.Session)
		if status != "" && sess.Status != status {
			return true
		}
		sessions = append(sessions, sess)
		return true
	})
	return sessions
}

// Delete releases a session's browser and marks it completed
func (m *Manager) Delete(id string) error {
	sess, ok := m.transition(id, models.StatusCompleted)
	if !ok {
		if _, err := m.Get(id); err != nil {
			return err
		}
		return fmt.Errorf("session is not running")
	}

	m.releaseBrowser(sess)
	return nil
}

// AcquireTurn reserves a browser-turn slot for the session. Returns an error
// when the session already has the maximum number of turns in flight.
func (m *Manager) AcquireTurn(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sem, ok := m.slots[id]
	if !ok {
		sem = semaphore.NewWeighted(maxConcurrentTurns)
		m.slots[id] = sem
	}

	if !sem.TryAcquire(1) {
		return fmt.Errorf("too many concurrent browser turns for session %s", id)
	}
	return nil
}

// ReleaseTurn frees a slot taken by AcquireTurn. Slots for IDs that were
// never registered (client-supplied endpoints) are dropped once idle so the
// map cannot grow one entry per unknown ID.
func (m *Manager) ReleaseTurn(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sem := m.slots[id]
	if sem == nil {
		return
	}
	sem.Release(1)

	if _, registered := m.sessions.Load(id); !registered && sem.TryAcquire(maxConcurrentTurns) {
		delete(m.slots, id)
	}
}

// expireAfter terminates the session when its TTL elapses. Sessions are not
// renewed automatically.
func (m *Manager) expireAfter(sess *models.Session) {
	timer := time.NewTimer(time.Duration(sess.TTL) * time.Second)
	defer timer.Stop()

	<-timer.C

	expired, ok := m.transition(sess.ID, models.StatusTimedOut)
	if !ok {
		return
	}

	log.Info("session: expired", "id", expired.ID)
	m.releaseBrowser(expired)
}

// transition moves a running session into a terminal status. The stored
// record is replaced with an updated copy rather than mutated in place, so
// pointers handed out earlier stay read-only snapshots. Returns false when
// the session is unknown or already terminal.
func (m *Manager) transition(id string, status models.SessionStatus) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	sess := value.(*models.Session)
	if sess.Status != models.StatusRunning {
		return nil, false
	}

	updated := *sess
	updated.Status = status
	m.sessions.Store(id, &updated)
	delete(m.slots, id)

	return &updated, true
}

func (m *Manager) releaseBrowser(sess *models.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	desc := &provision.Descriptor{
		ConnectURL:  sess.ConnectURL,
		Backend:     sess.Backend,
		ContainerID: sess.ContainerID,
	}
	if err := m.backend.Release(ctx, desc); err != nil {
		log.Warn("session: failed to release browser", "id", sess.ID, "error", err)
	}
}
