package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/browserpilot/internal/provision"
	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

type fakeBackend struct {
	failProvision bool
	released      int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Provision(_ context.Context, ttl int, _ bool) (*provision.Descriptor, error) {
	if f.failProvision {
		return nil, fmt.Errorf("provider unavailable")
	}
	return &provision.Descriptor{ConnectURL: "ws://fake:3000", TTL: ttl, Backend: "fake"}, nil
}

func (f *fakeBackend) Release(_ context.Context, _ *provision.Descriptor) error {
	f.released++
	return nil
}

func TestCreateAndGet(t *testing.T) {
	m := NewManager(&fakeBackend{})

	sess, err := m.Create(context.Background(), 300, true)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, models.StatusRunning, sess.Status)
	assert.Equal(t, "ws://fake:3000", sess.ConnectURL)

	got, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestCreateProvisionFailureRegistersNothing(t *testing.T) {
	m := NewManager(&fakeBackend{failProvision: true})

	sess, err := m.Create(context.Background(), 300, true)
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.Empty(t, m.List(""), "no partial state on provisioning failure")
}

func TestDeleteReleasesBrowser(t *testing.T) {
	backend := &fakeBackend{}
	m := NewManager(backend)

	sess, err := m.Create(context.Background(), 300, false)
	require.NoError(t, err)

	require.NoError(t, m.Delete(sess.ID))
	assert.Equal(t, 1, backend.released)

	got, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	assert.Error(t, m.Delete(sess.ID), "deleting a non-running session fails")
}

func TestTurnSlots(t *testing.T) {
	m := NewManager(&fakeBackend{})

	sess, err := m.Create(context.Background(), 300, false)
	require.NoError(t, err)

	require.NoError(t, m.AcquireTurn(sess.ID))
	require.NoError(t, m.AcquireTurn(sess.ID))
	assert.Error(t, m.AcquireTurn(sess.ID), "third concurrent turn is rejected")

	m.ReleaseTurn(sess.ID)
	assert.NoError(t, m.AcquireTurn(sess.ID))
}

func TestTurnSlotsForUnknownSessionsAreEvicted(t *testing.T) {
	m := NewManager(&fakeBackend{})

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("client-supplied-%d", i)
		require.NoError(t, m.AcquireTurn(id))
		m.ReleaseTurn(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.slots, "idle slots for unregistered IDs must not accumulate")
}

func TestTurnSlotsForRegisteredSessionSurviveRelease(t *testing.T) {
	m := NewManager(&fakeBackend{})

	sess, err := m.Create(context.Background(), 300, false)
	require.NoError(t, err)

	require.NoError(t, m.AcquireTurn(sess.ID))
	m.ReleaseTurn(sess.ID)

	m.mu.Lock()
	_, ok := m.slots[sess.ID]
	m.mu.Unlock()
	assert.True(t, ok, "registered sessions keep their slot until the session ends")

	require.NoError(t, m.Delete(sess.ID))
	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.slots, "terminating the session drops its slot")
}

func TestDeleteDoesNotMutateEarlierSnapshots(t *testing.T) {
	m := NewManager(&fakeBackend{})

	sess, err := m.Create(context.Background(), 300, false)
	require.NoError(t, err)

	before, err := m.Get(sess.ID)
	require.NoError(t, err)

	require.NoError(t, m.Delete(sess.ID))

	assert.Equal(t, models.StatusRunning, before.Status, "records handed out earlier are immutable snapshots")

	after, err := m.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, after.Status)
}
