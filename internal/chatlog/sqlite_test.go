package chatlog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func turn(sessionID, message, response string) models.ChatTurn {
	return models.ChatTurn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Message:   message,
		Response:  response,
		CreatedAt: time.Now(),
	}
}

func TestAppendAndHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := turn("s1", "go to google.com", "Opening google.com")
	first.NeedsBrowser = true
	first.Action = &models.Action{Type: models.ActionGoto, URL: "https://google.com"}
	first.Screenshot = "aW1hZ2U="
	first.Extracted = map[string]string{"title": "Google"}

	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, turn("s1", "thanks", "You're welcome!")))
	require.NoError(t, store.Append(ctx, turn("s2", "hello", "Hi!")))

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2, "history is filtered by session")

	got := history[0]
	assert.Equal(t, first.ID, got.ID)
	assert.True(t, got.NeedsBrowser)
	require.NotNil(t, got.Action)
	assert.Equal(t, models.ActionGoto, got.Action.Type)
	assert.Equal(t, "https://google.com", got.Action.URL)
	assert.Equal(t, "aW1hZ2U=", got.Screenshot)
	assert.Equal(t, map[string]string{"title": "Google"}, got.Extracted)

	assert.Nil(t, history[1].Action)
	assert.Empty(t, history[1].Screenshot)
}

func TestAppendTaskResultRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tn := turn("s1", "get the title of example.com", "Completed the task.")
	tn.TaskResult = &models.TaskResult{
		Success:   true,
		Task:      "get the title of example.com",
		Summary:   "Completed 2 step(s).",
		Steps:     []string{"goto https://example.com", "extract title"},
		Extracted: map[string]string{"title": "Example Domain"},
	}
	require.NoError(t, store.Append(ctx, tn))

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)

	got := history[0].TaskResult
	require.NotNil(t, got)
	assert.True(t, got.Success)
	assert.Equal(t, []string{"goto https://example.com", "extract title"}, got.Steps)
	assert.Equal(t, "Example Domain", got.Extracted["title"])
}

func TestHistoryEmptySession(t *testing.T) {
	store := newTestStore(t)

	history, err := store.History(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecentSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i, pair := range [][2]string{
		{"first message", "first reply"},
		{"second message", "second reply"},
		{"third message", "third reply"},
		{"fourth message", "fourth reply"},
	} {
		tn := turn("s1", pair[0], pair[1])
		tn.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Append(ctx, tn))
	}

	summary, err := store.RecentSummary(ctx, "s1", 3)
	require.NoError(t, err)

	assert.NotContains(t, summary, "first message", "only the last 3 turns are kept")
	assert.Contains(t, summary, "second message")
	assert.Contains(t, summary, "fourth reply")

	// Chronological order: second turn appears before fourth
	assert.Less(t,
		strings.Index(summary, "second message"), strings.Index(summary, "fourth message"),
		"summary is in chronological order")
}

func TestRecentSummaryTruncatesLongTurns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, store.Append(ctx, turn("s1", string(long), string(long))))

	summary, err := store.RecentSummary(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Less(t, len(summary), 400)
	assert.Contains(t, summary, "...")
}

func TestRecentSummaryKeepsMultibyteRunesIntact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	long := strings.Repeat("é", 120)
	require.NoError(t, store.Append(ctx, turn("s1", long, strings.Repeat("日本語テキスト", 50))))

	summary, err := store.RecentSummary(ctx, "s1", 3)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(summary), "summary must stay valid UTF-8 after truncation")
	assert.Contains(t, summary, "...")
}

func TestTruncateOnRuneBoundary(t *testing.T) {
	out := truncate(strings.Repeat("é", 60), 101)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "é..."))
	assert.LessOrEqual(t, len(out), 104)

	assert.Equal(t, "short", truncate("short", 100), "strings under the limit pass through")
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

func TestRecentSummaryEmptySession(t *testing.T) {
	store := newTestStore(t)

	summary, err := store.RecentSummary(context.Background(), "empty", 3)
	require.NoError(t, err)
	assert.Empty(t, summary)
}
