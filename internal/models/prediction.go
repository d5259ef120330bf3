package models

import (
	"database/sql"
	"time"
)

// Prediction is a user's podium guess for one race session
type Prediction struct {
	ID         int64 `db:"id"`
	UserID     int64 `db:"user_id"`
	SessionKey int   `db:"session_key"`

	// Guessed driver numbers
	P1 int `db:"p1_driver_number"`
	P2 int `db:"p2_driver_number"`
	P3 int `db:"p3_driver_number"`

	// Grading (NULL until scored)
	Correct      sql.NullBool  `db:"correct"`
	EarnedPoints sql.NullInt32 `db:"earned_points"`
	GradedAt     sql.NullTime  `db:"graded_at"`

	CreatedAt time.Time `db:"created_at"`
}

// IsGraded reports whether the prediction already carries a score
func (p *Prediction) IsGraded() bool {
	return p.EarnedPoints.Valid
}

// HasNonzeroPoints reports whether the prediction earned any points
func (p *Prediction) HasNonzeroPoints() bool {
	return p.EarnedPoints.Valid && p.EarnedPoints.Int32 != 0
}

// Podium is the actual top three of a race by driver number
type Podium struct {
	P1 int
	P2 int
	P3 int
}

// User is the slice of a user account this service maintains
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Points    int       `db:"points"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
