package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ashu27-arc/cricket-backend/internal/model"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL as the source of truth.
// The upstream scorer's full match state is stored as JSONB and never
// interpreted here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const matchColumns = `id, match_id, team_a, team_b, batting, overs,
	runs, wickets, ball_count, is_innings_over, status, full_state,
	created_at, updated_at`

func (s *PostgresStore) CreateMatch(ctx context.Context, m *model.Match) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matches (id, match_id, team_a, team_b, batting, overs,
		        runs, wickets, ball_count, is_innings_over, status, full_state,
		        created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.ID, m.MatchID, m.TeamA, m.TeamB, m.Batting, m.Overs,
		m.Runs, m.Wickets, m.BallCount, m.IsInningsOver, m.Status, m.FullState,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create match %s: %w", m.MatchID, ErrDuplicateMatchID)
		}
		return fmt.Errorf("create match %s: %w", m.MatchID, err)
	}
	return nil
}

func (s *PostgresStore) GetMatchByMatchID(ctx context.Context, matchID string) (*model.Match, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE match_id = $1`, matchID)
	return scanMatch(row)
}

func (s *PostgresStore) GetMatchByID(ctx context.Context, id string) (*model.Match, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	return scanMatch(row)
}

func (s *PostgresStore) MatchIDExists(ctx context.Context, matchID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM matches WHERE match_id = $1)`, matchID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check match id %s: %w", matchID, err)
	}
	return exists, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, limit int) ([]model.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM matches
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

func (s *PostgresStore) ListLiveMatches(ctx context.Context, limit int) ([]model.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE status = $1 ORDER BY created_at DESC LIMIT $2`,
		model.StatusLive, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMatches(rows)
}

func (s *PostgresStore) UpdateMatch(ctx context.Context, m *model.Match) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE matches
		 SET status = $2, runs = $3, wickets = $4, ball_count = $5,
		     is_innings_over = $6, full_state = $7, updated_at = $8
		 WHERE match_id = $1`,
		m.MatchID, m.Status, m.Runs, m.Wickets, m.BallCount,
		m.IsInningsOver, m.FullState, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update match %s: %w", m.MatchID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ReplaceMatch(ctx context.Context, m *model.Match) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE matches
		 SET team_a = $2, team_b = $3, batting = $4, overs = $5,
		     runs = $6, wickets = $7, ball_count = $8, is_innings_over = $9,
		     full_state = $10, updated_at = $11
		 WHERE id = $1`,
		m.ID, m.TeamA, m.TeamB, m.Batting, m.Overs,
		m.Runs, m.Wickets, m.BallCount, m.IsInningsOver,
		m.FullState, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("replace match %s: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteMatch(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete match %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) InsertCommentary(ctx context.Context, c *model.Commentary) error {
	var extraType *string
	var extraValue *int
	if c.Extras != nil {
		extraType, extraValue = &c.Extras.Type, &c.Extras.Value
	}
	var wicketType, fielder *string
	if c.WicketDetails != nil {
		wicketType, fielder = &c.WicketDetails.Type, &c.WicketDetails.Fielder
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO commentary (id, match_id, over_number, ball_number,
		        event_type, runs, description, batsman, bowler,
		        extra_type, extra_value, wicket_type, wicket_fielder, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.MatchID, c.Over, c.Ball,
		c.EventType, c.Runs, c.Description, c.Batsman, c.Bowler,
		extraType, extraValue, wicketType, fielder, c.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert commentary for %s: %w", c.MatchID, err)
	}
	return nil
}

func (s *PostgresStore) ListCommentary(ctx context.Context, matchID string) ([]model.Commentary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, match_id, over_number, ball_number, event_type, runs,
		        description, batsman, bowler, extra_type, extra_value,
		        wicket_type, wicket_fielder, ts
		 FROM commentary WHERE match_id = $1
		 ORDER BY over_number, ball_number`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.Commentary
	for rows.Next() {
		var c model.Commentary
		var batsman, bowler, extraType, wicketType, fielder *string
		var extraValue *int

		if err := rows.Scan(&c.ID, &c.MatchID, &c.Over, &c.Ball, &c.EventType,
			&c.Runs, &c.Description, &batsman, &bowler, &extraType, &extraValue,
			&wicketType, &fielder, &c.Timestamp); err != nil {
			return nil, err
		}
		if batsman != nil {
			c.Batsman = *batsman
		}
		if bowler != nil {
			c.Bowler = *bowler
		}
		if extraType != nil {
			c.Extras = &model.ExtraDetail{Type: *extraType}
			if extraValue != nil {
				c.Extras.Value = *extraValue
			}
		}
		if wicketType != nil {
			c.WicketDetails = &model.WicketDetail{Type: *wicketType}
			if fielder != nil {
				c.WicketDetails.Fielder = *fielder
			}
		}
		entries = append(entries, c)
	}
	return entries, rows.Err()
}

// scanMatch reads one match row, mapping pgx.ErrNoRows to ErrNotFound.
func scanMatch(row pgx.Row) (*model.Match, error) {
	var m model.Match
	err := row.Scan(&m.ID, &m.MatchID, &m.TeamA, &m.TeamB, &m.Batting,
		&m.Overs, &m.Runs, &m.Wickets, &m.BallCount, &m.IsInningsOver,
		&m.Status, &m.FullState, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan match: %w", err)
	}
	return &m, nil
}

func scanMatches(rows pgx.Rows) ([]model.Match, error) {
	var matches []model.Match
	for rows.Next() {
		var m model.Match
		if err := rows.Scan(&m.ID, &m.MatchID, &m.TeamA, &m.TeamB, &m.Batting,
			&m.Overs, &m.Runs, &m.Wickets, &m.BallCount, &m.IsInningsOver,
			&m.Status, &m.FullState, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
