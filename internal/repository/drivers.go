package repository

import (
	"context"
	"errors"
	"fmt"

	"f1picks/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// DriverRepository handles driver and team database operations
type DriverRepository struct {
	db *Database
}

// SaveRoster writes a session's roster in one transaction. Teams are upserted
// by name; an existing team keeps its id and the entry's Team.ID is updated to
// it before the driver row is written.
func (r *DriverRepository) SaveRoster(ctx context.Context, roster []models.RosterEntry) (err error) {
	defer track("save_roster", "drivers")(&err)

	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		saved := make(map[*models.Team]bool)

		for _, entry := range roster {
			if entry.Team != nil && !saved[entry.Team] {
				if err := upsertTeam(ctx, tx, entry.Team); err != nil {
					return err
				}
				saved[entry.Team] = true
			}

			d := entry.Driver
			d.TeamID.Valid = entry.Team != nil
			if entry.Team != nil {
				d.TeamID.UUID = entry.Team.ID
			}

			if err := upsertDriver(ctx, tx, d); err != nil {
				return err
			}
		}

		log.Debug().
			Int("drivers", len(roster)).
			Int("teams", len(saved)).
			Msg("Roster written")
		return nil
	})
}

func upsertTeam(ctx context.Context, tx pgx.Tx, t *models.Team) error {
	query := `
		INSERT INTO teams (id, name, colour)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			colour = EXCLUDED.colour,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRow(ctx, query, t.ID, t.Name, t.Colour).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert team %q: %w", t.Name, err)
	}
	return nil
}

func upsertDriver(ctx context.Context, tx pgx.Tx, d *models.Driver) error {
	query := `
		INSERT INTO drivers (
			driver_number, full_name, name_acronym, headshot_url, country_code, team_id
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (driver_number) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			name_acronym = EXCLUDED.name_acronym,
			headshot_url = EXCLUDED.headshot_url,
			country_code = EXCLUDED.country_code,
			team_id = EXCLUDED.team_id,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		d.DriverNumber, d.FullName, d.NameAcronym, d.HeadshotURL, d.CountryCode, d.TeamID,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert driver %d: %w", d.DriverNumber, err)
	}
	return nil
}

// GetByNumber retrieves a driver by racing number
func (r *DriverRepository) GetByNumber(ctx context.Context, driverNumber int) (*models.Driver, error) {
	query := `
		SELECT driver_number, full_name, name_acronym, headshot_url, country_code, team_id, created_at, updated_at
		FROM drivers
		WHERE driver_number = $1
	`

	var d models.Driver
	err := r.db.Pool.QueryRow(ctx, query, driverNumber).Scan(
		&d.DriverNumber, &d.FullName, &d.NameAcronym, &d.HeadshotURL, &d.CountryCode,
		&d.TeamID, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("driver %d: %w", driverNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	return &d, nil
}

// KnownNumbers returns the set of driver numbers present in the roster
func (r *DriverRepository) KnownNumbers(ctx context.Context) (_ map[int]bool, err error) {
	defer track("known_numbers", "drivers")(&err)

	rows, err := r.db.Pool.Query(ctx, `SELECT driver_number FROM drivers`)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer rows.Close()

	known := make(map[int]bool)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan driver number: %w", err)
		}
		known[n] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drivers: %w", err)
	}

	return known, nil
}

// GetTeamByName retrieves a team by its unique name
func (r *DriverRepository) GetTeamByName(ctx context.Context, name string) (*models.Team, error) {
	var t models.Team
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, colour, created_at, updated_at FROM teams WHERE name = $1`, name,
	).Scan(&t.ID, &t.Name, &t.Colour, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &t, nil
}
