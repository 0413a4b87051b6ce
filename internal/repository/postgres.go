package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jianghu-duel/duel-server-go/internal/config"
	apperrors "github.com/jianghu-duel/duel-server-go/internal/errors"
	"github.com/jianghu-duel/duel-server-go/internal/game/state"
	"go.uber.org/zap"
)

const createMatchesSQL = `
CREATE TABLE IF NOT EXISTS duel_matches (
	id           TEXT PRIMARY KEY,
	host_user_id TEXT NOT NULL,
	player_ids   TEXT[] NOT NULL DEFAULT '{}',
	status       TEXT NOT NULL,
	state        JSONB,
	version      INT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_duel_matches_status ON duel_matches(status);
`

// PostgresStore keeps each match as one row with the game state in a JSONB
// column.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ MatchStore = (*PostgresStore)(nil)

// NewPostgresStore connects, pings and makes sure the matches table exists.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createMatchesSQL); err != nil {
		pool.Close()
		return nil, err
	}

	stats := pool.Stat()
	logger.Info("connected to Postgres",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("max_conns", stats.MaxConns()),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func encodeState(gs *state.GameState) ([]byte, error) {
	if gs == nil {
		return nil, nil
	}
	raw, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return raw, nil
}

// Create inserts m at version 1.
func (s *PostgresStore) Create(ctx context.Context, m *Match) error {
	raw, err := encodeState(m.State)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO duel_matches (id, host_user_id, player_ids, status, state, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)`,
		m.ID, m.HostUserID, m.PlayerIDs, string(m.Status), raw, now,
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", m.ID, err)
	}
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

const selectMatchSQL = `
	SELECT id, host_user_id, player_ids, status, state, version, created_at, updated_at
	FROM duel_matches`

func scanMatch(row pgx.Row) (*Match, error) {
	var (
		m      Match
		status string
		raw    []byte
	)
	if err := row.Scan(&m.ID, &m.HostUserID, &m.PlayerIDs, &status, &raw, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Status = Status(status)
	if len(raw) > 0 {
		var gs state.GameState
		if err := json.Unmarshal(raw, &gs); err != nil {
			return nil, fmt.Errorf("decode state of match %s: %w", m.ID, err)
		}
		m.State = &gs
	}
	return &m, nil
}

// Load reads one match row.
func (s *PostgresStore) Load(ctx context.Context, id string) (*Match, error) {
	m, err := scanMatch(s.pool.QueryRow(ctx, selectMatchSQL+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.CodeMatchNotFound, "match %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load match %s: %w", id, err)
	}
	return m, nil
}

// ListWaiting returns lobbies seating only their host, newest first.
func (s *PostgresStore) ListWaiting(ctx context.Context) ([]*Match, error) {
	rows, err := s.pool.Query(ctx, selectMatchSQL+`
		WHERE status = $1 AND cardinality(player_ids) = 1
		ORDER BY created_at DESC, id`, string(StatusLobby))
	if err != nil {
		return nil, fmt.Errorf("list waiting matches: %w", err)
	}
	defer rows.Close()

	var out []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waiting match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list waiting matches: %w", err)
	}
	return out, nil
}

// DeleteIdleLobbies removes lobbies last updated before cutoff.
func (s *PostgresStore) DeleteIdleLobbies(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM duel_matches WHERE status = $1 AND updated_at < $2`,
		string(StatusLobby), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete idle lobbies: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.Info("deleted idle lobbies", zap.Int64("count", n))
	}
	return int(tag.RowsAffected()), nil
}

// Save updates the row only while its version equals expectedVersion.
func (s *PostgresStore) Save(ctx context.Context, m *Match, expectedVersion int) error {
	raw, err := encodeState(m.State)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE duel_matches
		SET host_user_id = $3, player_ids = $4, status = $5, state = $6, version = version + 1, updated_at = $7
		WHERE id = $1 AND version = $2`,
		m.ID, expectedVersion, m.HostUserID, m.PlayerIDs, string(m.Status), raw, now,
	)
	if err != nil {
		return fmt.Errorf("save match %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM duel_matches WHERE id = $1)`, m.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check match %s: %w", m.ID, err)
		}
		if !exists {
			return apperrors.Newf(apperrors.CodeMatchNotFound, "match %s not found", m.ID)
		}
		s.logger.Debug("match save lost a version race",
			zap.String("match_id", m.ID),
			zap.Int("expected_version", expectedVersion),
		)
		return apperrors.Newf(apperrors.CodeVersionConflict, "match %s changed since version %d", m.ID, expectedVersion)
	}
	m.Version = expectedVersion + 1
	m.UpdatedAt = now
	return nil
}
