package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveSession(ctx context.Context, record SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portal_sessions (token_hash, email, display_name, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token_hash) DO UPDATE SET
			email=EXCLUDED.email,
			display_name=EXCLUDED.display_name,
			role=EXCLUDED.role,
			expires_at=EXCLUDED.expires_at,
			revoked_at=NULL
	`, record.Key, record.Email, record.DisplayName, record.Role, record.CreatedAt, record.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupSession(ctx context.Context, key string) (SessionRecord, error) {
	const query = `
		SELECT token_hash, email, display_name, role, created_at, expires_at
		FROM portal_sessions
		WHERE token_hash = $1
			AND revoked_at IS NULL
			AND expires_at > NOW()
	`
	var record SessionRecord
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&record.Key, &record.Email, &record.DisplayName, &record.Role, &record.CreatedAt, &record.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("lookup session: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) RevokeSession(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE portal_sessions SET revoked_at=NOW() WHERE token_hash=$1`, key)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordAutosave(ctx context.Context, record AutosaveRecord) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO autosave_journal (editor_id, project_id, field, seq, status, error, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, record.EditorID, record.ProjectID, record.Field, record.Seq, string(record.Status), record.Error, record.RecordedAt)
	if err != nil {
		return fmt.Errorf("record autosave: %w", err)
	}
	return nil
}

// LatestAutosaves returns the newest record per field for one editor.
func (s *PostgresStore) LatestAutosaves(ctx context.Context, editorID string) ([]AutosaveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (field) editor_id, project_id, field, seq, status, error, recorded_at
		FROM autosave_journal
		WHERE editor_id = $1
		ORDER BY field, seq DESC, id DESC
	`, editorID)
	if err != nil {
		return nil, fmt.Errorf("list autosaves: %w", err)
	}
	defer rows.Close()

	var records []AutosaveRecord
	for rows.Next() {
		var record AutosaveRecord
		var status string
		if err := rows.Scan(&record.EditorID, &record.ProjectID, &record.Field, &record.Seq, &status, &record.Error, &record.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan autosave: %w", err)
		}
		record.Status = AutosaveStatus(status)
		records = append(records, record)
	}
	return records, rows.Err()
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
