package repository

import (
	"context"
	"errors"
	"fmt"

	"f1picks/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PredictionRepository handles prediction database operations
type PredictionRepository struct {
	db *Database
}

// Create inserts a prediction; a user holds at most one per session
func (r *PredictionRepository) Create(ctx context.Context, pred *models.Prediction) error {
	if pred == nil {
		return fmt.Errorf("prediction cannot be nil")
	}

	// Validate prediction data before insert
	if err := validatePredictionData(pred); err != nil {
		return fmt.Errorf("prediction validation failed: %w", err)
	}

	query := `
		INSERT INTO predictions (
			user_id, session_key, p1_driver_number, p2_driver_number, p3_driver_number
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		pred.UserID, pred.SessionKey, pred.P1, pred.P2, pred.P3,
	).Scan(&pred.ID, &pred.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}

	return nil
}

// ListBySession retrieves every prediction for a session
func (r *PredictionRepository) ListBySession(ctx context.Context, sessionKey int) (_ []*models.Prediction, err error) {
	defer track("list_by_session", "predictions")(&err)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, session_key, p1_driver_number, p2_driver_number, p3_driver_number,
		       correct, earned_points, graded_at, created_at
		FROM predictions
		WHERE session_key = $1
		ORDER BY id
	`, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var preds []*models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.SessionKey, &p.P1, &p.P2, &p.P3,
			&p.Correct, &p.EarnedPoints, &p.GradedAt, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		preds = append(preds, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return preds, nil
}

// Grade writes a prediction's score and credits its user in one transaction.
// A prediction that already carries a score is left untouched and Grade
// reports false.
func (r *PredictionRepository) Grade(ctx context.Context, pred *models.Prediction, points int, correct bool) (graded bool, err error) {
	defer track("grade", "predictions")(&err)

	err = r.db.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE predictions
			SET earned_points = $2, correct = $3, graded_at = NOW()
			WHERE id = $1 AND earned_points IS NULL
		`, pred.ID, points, correct)
		if err != nil {
			return fmt.Errorf("failed to grade prediction %d: %w", pred.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		graded = true

		if points > 0 {
			tag, err := tx.Exec(ctx,
				`UPDATE users SET points = points + $2, updated_at = NOW() WHERE id = $1`,
				pred.UserID, points,
			)
			if err != nil {
				return fmt.Errorf("failed to credit user %d: %w", pred.UserID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("user %d: %w", pred.UserID, ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if !graded {
		log.Debug().Int64("prediction_id", pred.ID).Msg("Prediction already graded, skipping")
	}
	return graded, nil
}

// validatePredictionData ensures prediction data is valid before insertion
func validatePredictionData(pred *models.Prediction) error {
	if pred.UserID <= 0 {
		return fmt.Errorf("user_id must be positive")
	}
	if pred.SessionKey <= 0 {
		return fmt.Errorf("session_key must be positive")
	}
	if pred.P1 <= 0 || pred.P2 <= 0 || pred.P3 <= 0 {
		return fmt.Errorf("all three podium picks are required")
	}
	if pred.P1 == pred.P2 || pred.P1 == pred.P3 || pred.P2 == pred.P3 {
		return fmt.Errorf("podium picks must be distinct drivers")
	}
	return nil
}

// UserRepository handles the user columns this service owns
type UserRepository struct {
	db *Database
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (username, points) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		u.Username, u.Points,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, username, points, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
