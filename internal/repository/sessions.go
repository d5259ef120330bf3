package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"f1picks/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// SessionRepository handles session database operations
type SessionRepository struct {
	db *Database
}

const sessionColumns = `s.session_key, s.meeting_key, s.session_name, s.session_type, s.date_start, s.date_end,
	s.meeting_name, s.country_name, s.circuit_short_name, s.year, s.created_at, s.updated_at`

// Upsert inserts or overwrites a session by session key
func (r *SessionRepository) Upsert(ctx context.Context, s *models.Session) (err error) {
	defer track("upsert", "sessions")(&err)

	query := `
		INSERT INTO sessions (
			session_key, meeting_key, session_name, session_type, date_start, date_end,
			meeting_name, country_name, circuit_short_name, year
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_key) DO UPDATE SET
			meeting_key = EXCLUDED.meeting_key,
			session_name = EXCLUDED.session_name,
			session_type = EXCLUDED.session_type,
			date_start = EXCLUDED.date_start,
			date_end = EXCLUDED.date_end,
			meeting_name = EXCLUDED.meeting_name,
			country_name = EXCLUDED.country_name,
			circuit_short_name = EXCLUDED.circuit_short_name,
			year = EXCLUDED.year,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		s.SessionKey, s.MeetingKey, s.Name, s.Type, s.DateStart, s.DateEnd,
		s.MeetingName, s.CountryName, s.CircuitShortName, s.Year,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert session %d: %w", s.SessionKey, err)
	}

	return nil
}

// GetByKey retrieves a session by its provider key
func (r *SessionRepository) GetByKey(ctx context.Context, sessionKey int) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s WHERE s.session_key = $1`

	s, err := scanSession(r.db.Pool.QueryRow(ctx, query, sessionKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", sessionKey, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return s, nil
}

// ListByYear retrieves every session of a season ordered by start time
func (r *SessionRepository) ListByYear(ctx context.Context, year int) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s WHERE s.year = $1 ORDER BY s.date_start, s.session_key`
	return r.list(ctx, "list_by_year", query, year)
}

// ListByMeeting retrieves the sessions of one meeting ordered by start time
func (r *SessionRepository) ListByMeeting(ctx context.Context, meetingKey int) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s WHERE s.meeting_key = $1 ORDER BY s.date_start, s.session_key`
	return r.list(ctx, "list_by_meeting", query, meetingKey)
}

// ListFinishedRacesWithoutResult retrieves race sessions that ended before
// now and have no stored result
func (r *SessionRepository) ListFinishedRacesWithoutResult(ctx context.Context, now time.Time) ([]*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		LEFT JOIN results r ON r.session_key = s.session_key
		WHERE LOWER(s.session_name) = LOWER($1)
		  AND s.date_end < $2
		  AND r.id IS NULL
		ORDER BY s.date_end
	`
	return r.list(ctx, "list_unreconciled", query, models.SessionNameRace, now)
}

// ListRacesEndedBetween retrieves race sessions whose end falls in [from, to]
func (r *SessionRepository) ListRacesEndedBetween(ctx context.Context, from, to time.Time) ([]*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE LOWER(s.session_name) = LOWER($1)
		  AND s.date_end BETWEEN $2 AND $3
		ORDER BY s.date_end
	`
	return r.list(ctx, "list_recent_races", query, models.SessionNameRace, from, to)
}

func (r *SessionRepository) list(ctx context.Context, operation, query string, args ...any) (_ []*models.Session, err error) {
	defer track(operation, "sessions")(&err)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	log.Debug().Str("query", operation).Int("count", len(sessions)).Msg("Retrieved sessions")
	return sessions, nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(
		&s.SessionKey, &s.MeetingKey, &s.Name, &s.Type, &s.DateStart, &s.DateEnd,
		&s.MeetingName, &s.CountryName, &s.CircuitShortName, &s.Year, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
