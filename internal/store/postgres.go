package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS game_events (
	game_id    TEXT   NOT NULL,
	seq        BIGINT NOT NULL,
	event_id   UUID   NOT NULL,
	event_type TEXT   NOT NULL,
	player_id  TEXT   NOT NULL DEFAULT '',
	payload    JSONB  NOT NULL,
	PRIMARY KEY (game_id, seq)
)`

const uniqueViolation = "23505"

// Postgres stores logs in PostgreSQL through a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// OpenPostgres connects to url, pings the server and creates the schema.
func OpenPostgres(ctx context.Context, url string, maxConns int32, logger *zap.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := pool.Stat()
	logger.Info("postgres event store opened",
		zap.Int32("max_conns", stats.MaxConns()),
		zap.Int32("total_conns", stats.TotalConns()),
	)
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) Append(ctx context.Context, gameID string, events []rules.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var last int64
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM game_events WHERE game_id = $1`, gameID,
	).Scan(&last); err != nil {
		return fmt.Errorf("read last seq: %w", err)
	}
	if err := checkContiguous(gameID, uint64(last), events); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, evt := range events {
		payload, err := encodeEvent(evt)
		if err != nil {
			return err
		}
		batch.Queue(
			`INSERT INTO game_events (game_id, seq, event_id, event_type, player_id, payload) VALUES ($1, $2, $3, $4, $5, $6)`,
			gameID, int64(evt.Seq), evt.ID, string(evt.Type), evt.Player, payload,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: game %s: %s", ErrSequence, gameID, pgErr.Detail)
		}
		return fmt.Errorf("insert events: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.logger.Debug("events appended",
		zap.String("game_id", gameID),
		zap.Int("count", len(events)),
		zap.Uint64("last_seq", events[len(events)-1].Seq),
	)
	return nil
}

func (p *Postgres) Load(ctx context.Context, gameID string) ([]rules.Event, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT payload FROM game_events WHERE game_id = $1 ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rules.Event, error) {
		var payload []byte
		if err := row.Scan(&payload); err != nil {
			return rules.Event{}, err
		}
		return decodeEvent(payload)
	})
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events, nil
}

func (p *Postgres) LastSeq(ctx context.Context, gameID string) (uint64, error) {
	var last int64
	if err := p.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM game_events WHERE game_id = $1`, gameID,
	).Scan(&last); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return uint64(last), nil
}

func (p *Postgres) ListGames(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT DISTINCT game_id FROM game_events ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read games: %w", err)
	}
	return ids, nil
}

func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}
