package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Jeff-67/TonyStock/internal/agent/models"
	"github.com/Jeff-67/TonyStock/internal/tool"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_turns (
	session_id   TEXT    NOT NULL,
	seq          INTEGER NOT NULL,
	role         TEXT    NOT NULL,
	content      TEXT    NOT NULL DEFAULT '',
	tool_name    TEXT    NOT NULL DEFAULT '',
	request_id   TEXT    NOT NULL DEFAULT '',
	tool_status  TEXT    NOT NULL DEFAULT '',
	requests     TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (session_id, seq)
);
`

// SQLiteStore persists sessions in a local SQLite database so history
// survives process restarts.
type SQLiteStore struct {
	db       *sql.DB
	maxTurns int
}

// OpenSQLite opens (creating if needed) the session database at path.
func OpenSQLite(path string, maxTurns int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing session schema: %w", err)
	}
	return &SQLiteStore{db: db, maxTurns: maxTurns}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, id string) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, tool_name, request_id, tool_status, requests
		 FROM session_turns WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", id, err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var turn models.Turn
		var role, status, requestsJSON string
		if err := rows.Scan(&role, &turn.Content, &turn.ToolName, &turn.RequestID, &status, &requestsJSON); err != nil {
			return nil, fmt.Errorf("scanning session %q: %w", id, err)
		}
		turn.Role = models.Role(role)
		turn.ToolStatus = tool.Status(status)
		if requestsJSON != "" {
			if err := json.Unmarshal([]byte(requestsJSON), &turn.ToolRequests); err != nil {
				return nil, fmt.Errorf("decoding tool requests for session %q: %w", id, err)
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading session %q: %w", id, err)
	}
	return turns, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, turns []models.Turn) error {
	turns = capTurns(turns, s.maxTurns)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_turns WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("saving session %q: %w", id, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO session_turns (session_id, seq, role, content, tool_name, request_id, tool_status, requests)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", id, err)
	}
	defer stmt.Close()

	for seq, turn := range turns {
		requestsJSON := ""
		if len(turn.ToolRequests) > 0 {
			data, err := json.Marshal(turn.ToolRequests)
			if err != nil {
				return fmt.Errorf("encoding tool requests for session %q: %w", id, err)
			}
			requestsJSON = string(data)
		}
		if _, err := stmt.ExecContext(ctx, id, seq, string(turn.Role), turn.Content,
			turn.ToolName, turn.RequestID, string(turn.ToolStatus), requestsJSON); err != nil {
			return fmt.Errorf("saving session %q: %w", id, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_turns WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting session %q: %w", id, err)
	}
	return nil
}
