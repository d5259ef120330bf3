package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"f1picks/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// MeetingRepository handles meeting database operations
type MeetingRepository struct {
	db *Database
}

const meetingColumns = `meeting_key, meeting_name, official_name, country_name, country_code,
	circuit_short_name, location, year, date_start, created_at, updated_at`

// Upsert inserts or overwrites a meeting by meeting key
func (r *MeetingRepository) Upsert(ctx context.Context, m *models.Meeting) (err error) {
	defer track("upsert", "meetings")(&err)

	query := `
		INSERT INTO meetings (
			meeting_key, meeting_name, official_name, country_name, country_code,
			circuit_short_name, location, year, date_start
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (meeting_key) DO UPDATE SET
			meeting_name = EXCLUDED.meeting_name,
			official_name = EXCLUDED.official_name,
			country_name = EXCLUDED.country_name,
			country_code = EXCLUDED.country_code,
			circuit_short_name = EXCLUDED.circuit_short_name,
			location = EXCLUDED.location,
			year = EXCLUDED.year,
			date_start = EXCLUDED.date_start,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		m.MeetingKey, m.Name, m.OfficialName, m.CountryName, m.CountryCode,
		m.CircuitShortName, m.Location, m.Year, nullTime(m.DateStart),
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert meeting %d: %w", m.MeetingKey, err)
	}

	return nil
}

// GetByKey retrieves a meeting by its provider key
func (r *MeetingRepository) GetByKey(ctx context.Context, meetingKey int) (*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE meeting_key = $1`

	m, err := scanMeeting(r.db.Pool.QueryRow(ctx, query, meetingKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("meeting %d: %w", meetingKey, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	return m, nil
}

// ListByYear retrieves the meetings of a season in calendar order
func (r *MeetingRepository) ListByYear(ctx context.Context, year int) ([]*models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE year = $1 ORDER BY date_start, meeting_key`

	rows, err := r.db.Pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meetings: %w", err)
	}

	return meetings, nil
}

func scanMeeting(row pgx.Row) (*models.Meeting, error) {
	var m models.Meeting
	var dateStart *time.Time
	err := row.Scan(
		&m.MeetingKey, &m.Name, &m.OfficialName, &m.CountryName, &m.CountryCode,
		&m.CircuitShortName, &m.Location, &m.Year, &dateStart, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dateStart != nil {
		m.DateStart = *dateStart
	}
	return &m, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
