// Package ingest synchronizes provider data into the local store: the driver
// lineup, the season schedule and reconciled race results.
package ingest

import (
	"context"
	"fmt"
	"time"

	"f1picks/ingestion/internal/client"
	"f1picks/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Gateway is the read-only provider surface the synchronizers consume
type Gateway interface {
	FetchMeetings(ctx context.Context, year int) ([]models.MeetingInput, error)
	FetchSessions(ctx context.Context, meetingKey int) ([]models.SessionInput, error)
	FetchDrivers(ctx context.Context, sessionKey int) ([]models.DriverInput, error)
	FetchFinalPositions(ctx context.Context, sessionKey int) ([]models.PositionInput, error)
	FetchRaceControl(ctx context.Context, sessionKey int) ([]models.RaceControlInput, error)
	FetchWeather(ctx context.Context, sessionKey int) ([]models.WeatherInput, error)
}

// Store is the persistence surface the synchronizers consume
type Store interface {
	UpsertMeeting(ctx context.Context, m *models.Meeting) error
	UpsertSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, sessionKey int) (*models.Session, error)
	ListSessionsByYear(ctx context.Context, year int) ([]*models.Session, error)
	ListSessionsByMeeting(ctx context.Context, meetingKey int) ([]*models.Session, error)
	ListFinishedRacesWithoutResult(ctx context.Context, now time.Time) ([]*models.Session, error)
	SaveRoster(ctx context.Context, roster []models.RosterEntry) error
	KnownDriverNumbers(ctx context.Context) (map[int]bool, error)
	ResultExists(ctx context.Context, sessionKey int) (bool, error)
	CreateResult(ctx context.Context, result *models.Result) error
}

// Service runs the synchronization pipeline
type Service struct {
	gateway Gateway
	store   Store
	now     func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a synchronization service
func NewService(gateway Gateway, store Store, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		store:   store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncSummary reports what one SynchronizeAll run did
type SyncSummary struct {
	Meetings   int
	Sessions   int
	Reconciled int
}

// SynchronizeAll runs lineup, schedule and result reconciliation for a season.
// Provider failures are logged and the run proceeds; persistence failures
// abort it.
func (s *Service) SynchronizeAll(ctx context.Context, year int) (*SyncSummary, error) {
	start := time.Now()
	summary := &SyncSummary{}

	log.Info().Int("year", year).Msg("Starting full synchronization")

	if err := s.SyncLineup(ctx, year); err != nil {
		if !client.IsFetchError(err) {
			return summary, fmt.Errorf("lineup sync failed: %w", err)
		}
		log.Warn().Err(err).Int("year", year).Msg("Lineup sync skipped, provider unavailable")
	}

	meetings, err := s.FetchSeasonMeetings(ctx, year)
	if err != nil {
		log.Warn().Err(err).Int("year", year).Msg("Schedule sync skipped, meetings unavailable")
	} else {
		summary.Meetings = len(meetings)
		summary.Sessions, err = s.SyncSchedule(ctx, meetings)
		if err != nil {
			return summary, fmt.Errorf("schedule sync failed: %w", err)
		}
	}

	summary.Reconciled, err = s.ReconcilePending(ctx)
	if err != nil {
		return summary, fmt.Errorf("result reconciliation failed: %w", err)
	}

	log.Info().
		Int("year", year).
		Int("meetings", summary.Meetings).
		Int("sessions", summary.Sessions).
		Int("results_created", summary.Reconciled).
		Dur("duration", time.Since(start)).
		Msg("Full synchronization complete")

	return summary, nil
}
