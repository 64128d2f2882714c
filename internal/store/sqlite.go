package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_events (
	game_id    TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	event_id   TEXT    NOT NULL,
	event_type TEXT    NOT NULL,
	player_id  TEXT    NOT NULL DEFAULT '',
	payload    TEXT    NOT NULL,
	PRIMARY KEY (game_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_game_events_type ON game_events(event_type);
`

// SQLite stores logs in a single SQLite database file.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, logger *zap.Logger) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", clean+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("sqlite event store opened", zap.String("path", clean))
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Append(ctx context.Context, gameID string, events []rules.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var last uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM game_events WHERE game_id = ?`, gameID,
	).Scan(&last); err != nil {
		return fmt.Errorf("read last seq: %w", err)
	}
	if err := checkContiguous(gameID, last, events); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO game_events (game_id, seq, event_id, event_type, player_id, payload) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, evt := range events {
		payload, err := encodeEvent(evt)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, gameID, evt.Seq, evt.ID, string(evt.Type), evt.Player, string(payload)); err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("%w: game %s seq %d already stored", ErrSequence, gameID, evt.Seq)
			}
			return fmt.Errorf("insert event %d: %w", evt.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("events appended",
		zap.String("game_id", gameID),
		zap.Int("count", len(events)),
		zap.Uint64("last_seq", events[len(events)-1].Seq),
	)
	return nil
}

// isConstraintError reports a primary key clash from a concurrent writer.
func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (s *SQLite) Load(ctx context.Context, gameID string) ([]rules.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM game_events WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []rules.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt, err := decodeEvent([]byte(payload))
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events, nil
}

func (s *SQLite) LastSeq(ctx context.Context, gameID string) (uint64, error) {
	var last uint64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM game_events WHERE game_id = ?`, gameID,
	).Scan(&last); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return last, nil
}

func (s *SQLite) ListGames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT game_id FROM game_events ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close is nil-safe.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
