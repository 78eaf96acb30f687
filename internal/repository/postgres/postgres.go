package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecoquest/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	state       BYTEA NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analysis_logs (
	id            BIGSERIAL PRIMARY KEY,
	session_id    TEXT NOT NULL,
	source        TEXT NOT NULL,
	input         TEXT NOT NULL,
	top_category  TEXT NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	suggestion    TEXT NOT NULL,
	is_mock       BOOLEAN NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS footprint_logs (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT NOT NULL,
	waste_type  TEXT NOT NULL,
	weight_kg   DOUBLE PRECISION NOT NULL,
	kg_co2e     DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS footprint_logs_session_created_idx
	ON footprint_logs (session_id, created_at);
`

// PostgresRepository implements domain.ActivityRepository and domain.SessionRepository
type PostgresRepository struct {
	pool       *pgxpool.Pool
	sessionTTL time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool, sessionTTL time.Duration) *PostgresRepository {
	return &PostgresRepository{pool: pool, sessionTTL: sessionTTL}
}

// EnsureSchema creates the tables if they do not exist yet
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to ensure schema: %w", err)
	}
	return nil
}

// GetSession loads a live session
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (domain.SessionState, error) {
	query := `SELECT state FROM sessions WHERE id = $1 AND expires_at > now()`

	var raw []byte
	if err := r.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SessionState{}, domain.ErrSessionNotFound
		}
		return domain.SessionState{}, fmt.Errorf("postgres: failed to load session: %w", err)
	}

	var state domain.SessionState
	if err := state.UnmarshalBinary(raw); err != nil {
		return domain.SessionState{}, fmt.Errorf("postgres: %w", err)
	}
	return state, nil
}

// SaveSession upserts the session and pushes its expiry forward
func (r *PostgresRepository) SaveSession(ctx context.Context, state domain.SessionState) error {
	query := `
		INSERT INTO sessions (id, state, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state, expires_at = EXCLUDED.expires_at, updated_at = now()
	`

	raw, err := state.MarshalBinary()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, state.SessionID, raw, time.Now().Add(r.sessionTTL)); err != nil {
		return fmt.Errorf("postgres: failed to save session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions past their expiry
func (r *PostgresRepository) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SaveAnalysisLog persists an analysis mission to PostgreSQL
func (r *PostgresRepository) SaveAnalysisLog(ctx context.Context, entry domain.AnalysisLog) error {
	query := `
		INSERT INTO analysis_logs (
			session_id, source, input, top_category, confidence, suggestion, is_mock, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.SessionID, entry.Source, entry.Input, string(entry.TopCategory),
		entry.Confidence, entry.Suggestion, entry.IsMock, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save analysis log: %w", err)
	}

	return nil
}

// SaveFootprintLog persists a carbon calculation to PostgreSQL
func (r *PostgresRepository) SaveFootprintLog(ctx context.Context, sessionID string, result domain.FootprintResult, at time.Time) error {
	query := `
		INSERT INTO footprint_logs (session_id, waste_type, weight_kg, kg_co2e, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, sessionID, result.WasteType, result.WeightKg, result.KgCO2e, at)
	if err != nil {
		return fmt.Errorf("postgres: failed to save footprint log: %w", err)
	}

	return nil
}

// GetFootprintHistory sums footprints per calendar month
func (r *PostgresRepository) GetFootprintHistory(ctx context.Context, sessionID string, from, to time.Time) ([]domain.FootprintPoint, error) {
	query := `
		SELECT date_trunc('month', created_at AT TIME ZONE 'UTC') AS month, SUM(kg_co2e)
		FROM footprint_logs
		WHERE session_id = $1 AND created_at BETWEEN $2 AND $3
		GROUP BY month
		ORDER BY month ASC
	`

	rows, err := r.pool.Query(ctx, query, sessionID, from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query footprint history: %w", err)
	}
	defer rows.Close()

	results := []domain.FootprintPoint{}
	for rows.Next() {
		var p domain.FootprintPoint
		if err := rows.Scan(&p.Month, &p.KgCO2e); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan footprint row: %w", err)
		}
		p.Month = p.Month.UTC()
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read footprint rows: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
