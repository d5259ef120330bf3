package repository

import (
	"context"
	"errors"
	"fmt"

	"f1picks/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ResultRepository handles race result database operations
type ResultRepository struct {
	db *Database
}

// Create stores a result with its positions and race-control events in one
// transaction. Returns ErrResultExists when the session already has a result.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) (err error) {
	defer track("create", "results")(&err)

	weather := result.Weather
	if weather == nil {
		weather = map[string]any{}
	}

	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO results (session_key, weather)
			VALUES ($1, $2)
			ON CONFLICT (session_key) DO NOTHING
			RETURNING id, created_at
		`, result.SessionKey, weather).Scan(&result.ID, &result.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("session %d: %w", result.SessionKey, ErrResultExists)
		}
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}

		positionRows := make([][]any, 0, len(result.Positions))
		for i := range result.Positions {
			p := &result.Positions[i]
			p.ResultID = result.ID
			positionRows = append(positionRows, []any{p.ResultID, p.DriverNumber, p.GridPosition, p.FinishPosition})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"positions"},
			[]string{"result_id", "driver_number", "grid_position", "finish_position"},
			pgx.CopyFromRows(positionRows),
		); err != nil {
			return fmt.Errorf("failed to insert positions: %w", err)
		}

		eventRows := make([][]any, 0, len(result.Events))
		for i := range result.Events {
			e := &result.Events[i]
			e.ResultID = result.ID
			eventRows = append(eventRows, []any{e.ResultID, e.OccurredAt, e.Message, e.Flag, e.Category, e.LapNumber})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"race_control_events"},
			[]string{"result_id", "occurred_at", "message", "flag", "category", "lap_number"},
			pgx.CopyFromRows(eventRows),
		); err != nil {
			return fmt.Errorf("failed to insert race control events: %w", err)
		}

		log.Debug().
			Int64("id", result.ID).
			Int("session_key", result.SessionKey).
			Int("positions", len(result.Positions)).
			Int("events", len(result.Events)).
			Msg("Result created")
		return nil
	})
}

// ExistsForSession reports whether a result is stored for the session
func (r *ResultRepository) ExistsForSession(ctx context.Context, sessionKey int) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM results WHERE session_key = $1)`, sessionKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check result: %w", err)
	}
	return exists, nil
}

// GetBySession retrieves a session's result with positions and events
func (r *ResultRepository) GetBySession(ctx context.Context, sessionKey int) (*models.Result, error) {
	var result models.Result
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, session_key, weather, created_at FROM results WHERE session_key = $1`, sessionKey,
	).Scan(&result.ID, &result.SessionKey, &result.Weather, &result.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("result for session %d: %w", sessionKey, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, result_id, driver_number, grid_position, finish_position
		FROM positions
		WHERE result_id = $1
		ORDER BY finish_position, driver_number
	`, result.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	result.Positions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Position, error) {
		var p models.Position
		err := row.Scan(&p.ID, &p.ResultID, &p.DriverNumber, &p.GridPosition, &p.FinishPosition)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan positions: %w", err)
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT id, result_id, occurred_at, message, flag, category, lap_number
		FROM race_control_events
		WHERE result_id = $1
		ORDER BY occurred_at, id
	`, result.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get race control events: %w", err)
	}
	result.Events, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RaceControlEvent, error) {
		var e models.RaceControlEvent
		err := row.Scan(&e.ID, &e.ResultID, &e.OccurredAt, &e.Message, &e.Flag, &e.Category, &e.LapNumber)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan race control events: %w", err)
	}

	return &result, nil
}
