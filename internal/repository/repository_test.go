package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"f1picks/ingestion/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bahrain = &models.Meeting{
	MeetingKey:       1229,
	Name:             "Bahrain Grand Prix",
	CountryName:      "Bahrain",
	CircuitShortName: "Sakhir",
	Year:             2024,
	DateStart:        time.Date(2024, 2, 29, 11, 30, 0, 0, time.UTC),
}

func raceSession(key int, end time.Time) *models.Session {
	return &models.Session{
		SessionKey:       key,
		MeetingKey:       bahrain.MeetingKey,
		Name:             "Race",
		Type:             "Race",
		DateStart:        end.Add(-2 * time.Hour),
		DateEnd:          end,
		MeetingName:      bahrain.Name,
		CountryName:      bahrain.CountryName,
		CircuitShortName: bahrain.CircuitShortName,
		Year:             bahrain.Year,
	}
}

func TestSessionRepository_UpsertOverwrites(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Meetings.Upsert(ctx, bahrain))

	s := raceSession(9472, time.Now().Add(-time.Hour))
	require.NoError(t, db.Sessions.Upsert(ctx, s))

	s.CircuitShortName = "Bahrain International"
	require.NoError(t, db.Sessions.Upsert(ctx, s))

	got, err := db.Sessions.GetByKey(ctx, 9472)
	require.NoError(t, err)
	assert.Equal(t, "Bahrain International", got.CircuitShortName)

	sessions, err := db.Sessions.ListByYear(ctx, 2024)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	_, err = db.Sessions.GetByKey(ctx, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDriverRepository_SaveRosterKeepsTeamIdentity(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	redBull := &models.Team{ID: uuid.New(), Name: "Red Bull Racing", Colour: "3671C6"}
	roster := []models.RosterEntry{
		{Driver: &models.Driver{DriverNumber: 1, FullName: "Max VERSTAPPEN"}, Team: redBull},
		{Driver: &models.Driver{DriverNumber: 11, FullName: "Sergio PEREZ"}, Team: redBull},
	}
	require.NoError(t, db.Drivers.SaveRoster(ctx, roster))
	originalID := redBull.ID

	again := &models.Team{ID: uuid.New(), Name: "Red Bull Racing", Colour: "1E41FF"}
	require.NoError(t, db.Drivers.SaveRoster(ctx, []models.RosterEntry{
		{Driver: &models.Driver{DriverNumber: 1, FullName: "Max VERSTAPPEN"}, Team: again},
	}))
	assert.Equal(t, originalID, again.ID, "Existing team keeps its id")

	team, err := db.Drivers.GetTeamByName(ctx, "Red Bull Racing")
	require.NoError(t, err)
	assert.Equal(t, "1E41FF", team.Colour)

	known, err := db.Drivers.KnownNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 11: true}, known)

	d, err := db.Drivers.GetByNumber(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, originalID, d.TeamID.UUID)
}

func seedRace(t *testing.T, db *Database) *models.Session {
	ctx := t.Context()
	require.NoError(t, db.Meetings.Upsert(ctx, bahrain))
	s := raceSession(9472, time.Now().Add(-time.Hour))
	require.NoError(t, db.Sessions.Upsert(ctx, s))
	require.NoError(t, db.Drivers.SaveRoster(ctx, []models.RosterEntry{
		{Driver: &models.Driver{DriverNumber: 1}},
		{Driver: &models.Driver{DriverNumber: 11}},
		{Driver: &models.Driver{DriverNumber: 55}},
	}))
	return s
}

func TestResultRepository_CreateOncePerSession(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	s := seedRace(t, db)

	pending, err := db.Sessions.ListFinishedRacesWithoutResult(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	result := &models.Result{
		SessionKey: s.SessionKey,
		Weather:    map[string]any{"air_temperature": 28.4},
		Positions: []models.Position{
			{DriverNumber: 1, FinishPosition: 1, GridPosition: sql.NullInt32{Int32: 1, Valid: true}},
			{DriverNumber: 11, FinishPosition: 2},
		},
		Events: []models.RaceControlEvent{
			{OccurredAt: s.DateStart, Message: "GREEN LIGHT - PIT EXIT OPEN", Flag: "GREEN", Category: "Flag"},
		},
	}
	require.NoError(t, db.Results.Create(ctx, result))
	assert.NotZero(t, result.ID)

	err = db.Results.Create(ctx, &models.Result{SessionKey: s.SessionKey})
	assert.True(t, errors.Is(err, ErrResultExists))

	exists, err := db.Results.ExistsForSession(ctx, s.SessionKey)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := db.Results.GetBySession(ctx, s.SessionKey)
	require.NoError(t, err)
	assert.Len(t, stored.Positions, 2)
	assert.False(t, stored.Positions[1].GridPosition.Valid)
	require.Len(t, stored.Events, 1)
	assert.Equal(t, "GREEN", stored.Events[0].Flag)
	assert.Equal(t, 28.4, stored.Weather["air_temperature"])

	pending, err = db.Sessions.ListFinishedRacesWithoutResult(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPredictionRepository_GradeOnce(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	s := seedRace(t, db)

	user := &models.User{Username: "tifosi"}
	require.NoError(t, db.Users.Create(ctx, user))

	pred := &models.Prediction{UserID: user.ID, SessionKey: s.SessionKey, P1: 1, P2: 11, P3: 55}
	require.NoError(t, db.Predictions.Create(ctx, pred))

	graded, err := db.Predictions.Grade(ctx, pred, 33, true)
	require.NoError(t, err)
	assert.True(t, graded)

	graded, err = db.Predictions.Grade(ctx, pred, 33, true)
	require.NoError(t, err)
	assert.False(t, graded, "Second grading must not apply")

	u, err := db.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, u.Points)

	preds, err := db.Predictions.ListBySession(ctx, s.SessionKey)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, int32(33), preds[0].EarnedPoints.Int32)
	assert.True(t, preds[0].Correct.Bool)

	recent, err := db.Sessions.ListRacesEndedBetween(ctx, time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestPredictionRepository_RejectsInvalid(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.Predictions.Create(ctx, &models.Prediction{UserID: 1, SessionKey: 9472, P1: 1, P2: 1, P3: 55})
	assert.Error(t, err)
}
