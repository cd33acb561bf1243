package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docqa/internal/logging"
)

// SessionTurn is one persisted question/answer exchange.
type SessionTurn struct {
	Question string
	Answer   string
}

// SessionRecord summarizes a persisted conversation.
type SessionRecord struct {
	ID        string
	Turns     int
	Summary   string
	UpdatedAt time.Time
}

// AppendSessionTurn persists a completed exchange for a session.
func (s *DocumentStore) AppendSessionTurn(ctx context.Context, sessionID, question, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO session_turns (session_id, question, answer) VALUES (?, ?, ?)",
		sessionID, question, answer)
	if err != nil {
		return fmt.Errorf("failed to persist session turn: %w", err)
	}
	logging.StoreDebug("Persisted turn for session %s", sessionID)
	return nil
}

// SessionHistory returns a session's turns, oldest first.
func (s *DocumentStore) SessionHistory(ctx context.Context, sessionID string) ([]SessionTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT question, answer FROM session_turns WHERE session_id = ? ORDER BY id",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	defer rows.Close()

	var turns []SessionTurn
	for rows.Next() {
		var t SessionTurn
		if err := rows.Scan(&t.Question, &t.Answer); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// SetSessionSummary stores or replaces a session's rolling summary.
func (s *DocumentStore) SetSessionSummary(ctx context.Context, sessionID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_summaries (session_id, summary, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(session_id) DO UPDATE SET summary = excluded.summary, updated_at = CURRENT_TIMESTAMP`,
		sessionID, summary)
	if err != nil {
		return fmt.Errorf("failed to persist session summary: %w", err)
	}
	return nil
}

// SessionSummary returns a session's rolling summary, empty if none.
func (s *DocumentStore) SessionSummary(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary string
	err := s.db.QueryRowContext(ctx,
		"SELECT summary FROM session_summaries WHERE session_id = ?", sessionID).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session summary: %w", err)
	}
	return summary, nil
}

// ListSessions returns all persisted sessions, most recently active first.
func (s *DocumentStore) ListSessions(ctx context.Context) ([]SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.session_id, COUNT(*), COALESCE(sm.summary, ''), MAX(t.created_at)
		FROM session_turns t
		LEFT JOIN session_summaries sm ON sm.session_id = t.session_id
		GROUP BY t.session_id
		ORDER BY MAX(t.created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var updated string
		if err := rows.Scan(&r.ID, &r.Turns, &r.Summary, &updated); err != nil {
			continue
		}
		// MAX() strips the column's declared type, so the driver hands the
		// timestamp back as text.
		if t, err := time.Parse("2006-01-02 15:04:05", updated); err == nil {
			r.UpdatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteSession removes a session's turns and summary. Returns the number
// of turns removed.
func (s *DocumentStore) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM session_turns WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM session_summaries WHERE session_id = ?", sessionID); err != nil {
		return 0, fmt.Errorf("failed to delete session summary: %w", err)
	}
	return res.RowsAffected()
}
