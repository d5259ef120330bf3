package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"f1picks/ingestion/internal/client"
	"f1picks/ingestion/internal/metrics"
	"f1picks/ingestion/internal/models"
	"f1picks/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

// Outcome is what reconciling one session did
type Outcome string

const (
	OutcomeCreated          Outcome = "created"
	OutcomeNotRace          Outcome = "not_race"
	OutcomeNotFinished      Outcome = "not_finished"
	OutcomeExists           Outcome = "exists"
	OutcomeNoClassification Outcome = "no_classification"
	OutcomeNoRoster         Outcome = "no_roster"
	OutcomeFetchFailed      Outcome = "fetch_failed"
)

// ReconcilePending creates results for every finished race that lacks one.
// Returns the number of results created.
func (s *Service) ReconcilePending(ctx context.Context) (int, error) {
	sessions, err := s.store.ListFinishedRacesWithoutResult(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list unreconciled races: %w", err)
	}
	if len(sessions) == 0 {
		log.Debug().Msg("No races awaiting results")
		return 0, nil
	}

	log.Info().Int("count", len(sessions)).Msg("Reconciling finished races")

	created := 0
	for _, session := range sessions {
		outcome, err := s.reconcile(ctx, session)
		if err != nil {
			return created, err
		}
		if outcome == OutcomeCreated {
			created++
		}
	}

	return created, nil
}

// ReconcileSession builds and stores the result of one session if it is an
// eligible race
func (s *Service) ReconcileSession(ctx context.Context, sessionKey int) (Outcome, error) {
	session, err := s.store.GetSession(ctx, sessionKey)
	if err != nil {
		return "", fmt.Errorf("failed to load session %d: %w", sessionKey, err)
	}
	return s.reconcile(ctx, session)
}

func (s *Service) reconcile(ctx context.Context, session *models.Session) (Outcome, error) {
	logger := log.With().Int("session_key", session.SessionKey).Str("meeting", session.MeetingName).Logger()

	switch {
	case !session.IsRace():
		return skip(OutcomeNotRace), nil
	case !session.HasFinished(s.now()):
		logger.Debug().Time("date_end", session.DateEnd).Msg("Race has not finished, skipping")
		return skip(OutcomeNotFinished), nil
	}

	exists, err := s.store.ResultExists(ctx, session.SessionKey)
	if err != nil {
		return "", fmt.Errorf("failed to check result for session %d: %w", session.SessionKey, err)
	}
	if exists {
		return skip(OutcomeExists), nil
	}

	result, outcome, err := s.buildResult(ctx, session)
	if err != nil {
		if !client.IsFetchError(err) {
			return "", err
		}
		metrics.RecordError("reconciler", "fetch")
		logger.Warn().Err(err).Msg("Provider data unavailable, will retry next run")
		return skip(OutcomeFetchFailed), nil
	}
	if outcome != OutcomeCreated {
		logger.Warn().Str("reason", string(outcome)).Msg("Race not reconciled")
		return skip(outcome), nil
	}

	if err := s.store.CreateResult(ctx, result); err != nil {
		if errors.Is(err, repository.ErrResultExists) {
			logger.Info().Msg("Result created concurrently, skipping")
			return skip(OutcomeExists), nil
		}
		return "", fmt.Errorf("failed to save result for session %d: %w", session.SessionKey, err)
	}

	metrics.RecordReconciled()
	logger.Info().
		Int("positions", len(result.Positions)).
		Int("events", len(result.Events)).
		Msg("Race result reconciled")
	return OutcomeCreated, nil
}

// buildResult gathers the classification, grid, race control and weather of a race
func (s *Service) buildResult(ctx context.Context, session *models.Session) (*models.Result, Outcome, error) {
	final, err := s.gateway.FetchFinalPositions(ctx, session.SessionKey)
	if err != nil {
		return nil, "", err
	}
	if len(final) == 0 {
		return nil, OutcomeNoClassification, nil
	}

	grid, err := s.qualifyingGrid(ctx, session)
	if err != nil {
		return nil, "", err
	}

	known, err := s.store.KnownDriverNumbers(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load roster: %w", err)
	}

	positions := make([]models.Position, 0, len(final))
	for _, p := range final {
		if !known[p.DriverNumber] {
			log.Debug().
				Int("session_key", session.SessionKey).
				Int("driver_number", p.DriverNumber).
				Msg("Dropping classified driver missing from roster")
			continue
		}

		pos := models.Position{DriverNumber: p.DriverNumber, FinishPosition: p.Position}
		if g, ok := grid[p.DriverNumber]; ok {
			pos.GridPosition = sql.NullInt32{Int32: int32(g), Valid: true}
		}
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		// Nothing classified is in the roster yet; wait for a lineup sync
		return nil, OutcomeNoRoster, nil
	}

	raceControl, err := s.gateway.FetchRaceControl(ctx, session.SessionKey)
	if err != nil {
		return nil, "", err
	}
	events := make([]models.RaceControlEvent, 0, len(raceControl))
	for i := range raceControl {
		events = append(events, raceControl[i].ToEvent())
	}

	weather, err := s.gateway.FetchWeather(ctx, session.SessionKey)
	if err != nil {
		return nil, "", err
	}

	return &models.Result{
		SessionKey: session.SessionKey,
		Weather:    HottestReading(weather),
		Positions:  positions,
		Events:     events,
	}, OutcomeCreated, nil
}

// qualifyingGrid maps driver number to grid slot from the meeting's most
// recently started qualifying session. An empty map means no grid is known.
func (s *Service) qualifyingGrid(ctx context.Context, race *models.Session) (map[int]int, error) {
	sessions, err := s.store.ListSessionsByMeeting(ctx, race.MeetingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions of meeting %d: %w", race.MeetingKey, err)
	}

	var qualifying []*models.Session
	for _, sess := range sessions {
		if sess.IsQualifying() {
			qualifying = append(qualifying, sess)
		}
	}

	latest := latestStarted(qualifying, s.now())
	if latest == nil {
		log.Debug().Int("session_key", race.SessionKey).Msg("No qualifying session, grid left empty")
		return map[int]int{}, nil
	}

	positions, err := s.gateway.FetchFinalPositions(ctx, latest.SessionKey)
	if err != nil {
		return nil, err
	}

	return client.PositionByDriver(positions), nil
}

// HottestReading returns the weather reading with the highest air temperature,
// or an empty map when no reading carries one
func HottestReading(readings []models.WeatherInput) map[string]any {
	var hottest models.WeatherInput
	best := 0.0

	for _, r := range readings {
		t, ok := r.AirTemperature()
		if !ok {
			continue
		}
		if hottest == nil || t > best {
			hottest, best = r, t
		}
	}

	out := make(map[string]any, len(hottest))
	for k, v := range hottest {
		out[k] = v
	}
	return out
}

func skip(outcome Outcome) Outcome {
	metrics.RecordReconcileSkip(string(outcome))
	return outcome
}
