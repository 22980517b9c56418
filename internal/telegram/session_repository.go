package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Session types.
const (
	SessionRevise = "revise"
)

// Session represents an active user session (e.g., awaiting revision feedback).
type Session struct {
	ID          int64
	UserID      string
	SessionType string
	State       string
	ContextData string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SessionContextData holds structured data stored in the context_data JSON field.
type SessionContextData struct {
	PlanID          int64  `json:"plan_id"`
	OriginalRequest string `json:"original_request"`
}

// GetContextData unmarshals the context_data JSON field.
func (s *Session) GetContextData() (SessionContextData, error) {
	var data SessionContextData
	err := json.Unmarshal([]byte(s.ContextData), &data)
	return data, err
}

// SessionRepository provides access to session persistence operations.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create opens a session expiring after ttl and returns its ID. Older
// sessions of the same user and type are closed.
func (sr *SessionRepository) Create(ctx context.Context, userID, sessionType, state string, contextData SessionContextData, ttl time.Duration) (int64, error) {
	jsonData, err := json.Marshal(contextData)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal session data: %w", err)
	}

	if _, err := sr.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ? AND session_type = ?`, userID, sessionType,
	); err != nil {
		return 0, fmt.Errorf("failed to close previous sessions: %w", err)
	}

	now := time.Now().UTC()
	res, err := sr.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, session_type, state, context_data, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, sessionType, state, string(jsonData), now.Add(ttl), now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return res.LastInsertId()
}

// GetActive retrieves the most recent non-expired session for a user, or nil.
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	var s Session
	err := sr.db.QueryRowContext(ctx,
		`SELECT id, user_id, session_type, state, context_data, expires_at, created_at
		 FROM sessions WHERE user_id = ? AND expires_at > ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID, now.UTC(),
	).Scan(&s.ID, &s.UserID, &s.SessionType, &s.State, &s.ContextData, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return &s, nil
}

// Delete removes a session.
func (sr *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	if _, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes all sessions expired at now.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.RowsAffected()
}
