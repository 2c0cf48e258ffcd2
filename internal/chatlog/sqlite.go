package chatlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

const currentSchemaVersion = 1

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the store at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	log.Info("chatlog: store opened", "path", path)
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err != nil {
		version = 0
	}
	if version >= currentSchemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		message TEXT NOT NULL,
		response TEXT NOT NULL,
		action TEXT,
		screenshot TEXT,
		extracted TEXT,
		project TEXT,
		task_result TEXT,
		needs_browser INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON chat_turns(session_id, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	_, err = s.db.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
		currentSchemaVersion, time.Now().Unix())
	return err
}

// Append inserts one immutable turn
func (s *SQLiteStore) Append(ctx context.Context, turn models.ChatTurn) error {
	action, err := marshalNullable(turn.Action)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}
	extracted, err := marshalNullable(turn.Extracted)
	if err != nil {
		return fmt.Errorf("failed to encode extracted: %w", err)
	}
	project, err := marshalNullable(turn.Project)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	taskResult, err := marshalNullable(turn.TaskResult)
	if err != nil {
		return fmt.Errorf("failed to encode task result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_turns
		(id, session_id, message, response, action, screenshot, extracted, project, task_result, needs_browser, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.Message, turn.Response,
		action, nullableString(turn.Screenshot), extracted, project, taskResult,
		boolToInt(turn.NeedsBrowser), turn.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

// History returns the session's turns in insertion order
func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]models.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, message, response, action, screenshot, extracted, project, task_result, needs_browser, created_at
		FROM chat_turns WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var turns []models.ChatTurn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// RecentSummary builds a short rolling context string from the last n turns.
func (s *SQLiteStore) RecentSummary(ctx context.Context, sessionID string, n int) (string, error) {
	if n <= 0 {
		n = 3
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT message, response FROM chat_turns
		WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`, sessionID, n)
	if err != nil {
		return "", fmt.Errorf("failed to query summary: %w", err)
	}
	defer rows.Close()

	var pairs []string
	for rows.Next() {
		var message, response string
		if err := rows.Scan(&message, &response); err != nil {
			return "", err
		}
		pairs = append(pairs, fmt.Sprintf("User: %s\nAssistant: %s",
			truncate(message, 100), truncate(response, 200)))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	// Rows came newest first; flip back to chronological order
	for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}
	return strings.Join(pairs, "\n"), nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(row scanner) (models.ChatTurn, error) {
	var turn models.ChatTurn
	var action, screenshot, extracted, project, taskResult sql.NullString
	var needsBrowser int
	var createdAt int64

	err := row.Scan(&turn.ID, &turn.SessionID, &turn.Message, &turn.Response,
		&action, &screenshot, &extracted, &project, &taskResult, &needsBrowser, &createdAt)
	if err != nil {
		return turn, fmt.Errorf("failed to scan turn: %w", err)
	}

	if action.Valid {
		var a models.Action
		if err := json.Unmarshal([]byte(action.String), &a); err == nil {
			turn.Action = &a
		}
	}
	if screenshot.Valid {
		turn.Screenshot = screenshot.String
	}
	if extracted.Valid {
		_ = json.Unmarshal([]byte(extracted.String), &turn.Extracted)
	}
	if project.Valid {
		var p models.Project
		if err := json.Unmarshal([]byte(project.String), &p); err == nil {
			turn.Project = &p
		}
	}
	if taskResult.Valid {
		var tr models.TaskResult
		if err := json.Unmarshal([]byte(taskResult.String), &tr); err == nil {
			turn.TaskResult = &tr
		}
	}
	turn.NeedsBrowser = needsBrowser != 0
	turn.CreatedAt = time.UnixMilli(createdAt)

	return turn, nil
}

func marshalNullable(v any) (sql.NullString, error) {
	switch val := v.(type) {
	case *models.Action:
		if val == nil {
			return sql.NullString{}, nil
		}
	case *models.Project:
		if val == nil {
			return sql.NullString{}, nil
		}
	case *models.TaskResult:
		if val == nil {
			return sql.NullString{}, nil
		}
	case map[string]string:
		if val == nil {
			return sql.NullString{}, nil
		}
	}

	out, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(out), Valid: true}, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// truncate cuts on a rune boundary so multibyte text stays valid UTF-8
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
