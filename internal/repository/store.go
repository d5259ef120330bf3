package repository

import (
	"context"
	"time"

	"f1picks/ingestion/internal/models"
)

// The methods below flatten the per-table repositories into the narrow
// store contracts the ingest and scoring services depend on.

func (db *Database) UpsertMeeting(ctx context.Context, m *models.Meeting) error {
	return db.Meetings.Upsert(ctx, m)
}

func (db *Database) UpsertSession(ctx context.Context, s *models.Session) error {
	return db.Sessions.Upsert(ctx, s)
}

func (db *Database) GetSession(ctx context.Context, sessionKey int) (*models.Session, error) {
	return db.Sessions.GetByKey(ctx, sessionKey)
}

func (db *Database) ListSessionsByYear(ctx context.Context, year int) ([]*models.Session, error) {
	return db.Sessions.ListByYear(ctx, year)
}

func (db *Database) ListSessionsByMeeting(ctx context.Context, meetingKey int) ([]*models.Session, error) {
	return db.Sessions.ListByMeeting(ctx, meetingKey)
}

func (db *Database) ListFinishedRacesWithoutResult(ctx context.Context, now time.Time) ([]*models.Session, error) {
	return db.Sessions.ListFinishedRacesWithoutResult(ctx, now)
}

func (db *Database) ListRacesEndedBetween(ctx context.Context, from, to time.Time) ([]*models.Session, error) {
	return db.Sessions.ListRacesEndedBetween(ctx, from, to)
}

func (db *Database) SaveRoster(ctx context.Context, roster []models.RosterEntry) error {
	return db.Drivers.SaveRoster(ctx, roster)
}

func (db *Database) KnownDriverNumbers(ctx context.Context) (map[int]bool, error) {
	return db.Drivers.KnownNumbers(ctx)
}

func (db *Database) ResultExists(ctx context.Context, sessionKey int) (bool, error) {
	return db.Results.ExistsForSession(ctx, sessionKey)
}

func (db *Database) CreateResult(ctx context.Context, result *models.Result) error {
	return db.Results.Create(ctx, result)
}

func (db *Database) ListPredictions(ctx context.Context, sessionKey int) ([]*models.Prediction, error) {
	return db.Predictions.ListBySession(ctx, sessionKey)
}

func (db *Database) GradePrediction(ctx context.Context, pred *models.Prediction, points int, correct bool) (bool, error) {
	return db.Predictions.Grade(ctx, pred, points, correct)
}
