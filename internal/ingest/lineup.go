package ingest

import (
	"context"
	"fmt"

	"f1picks/ingestion/internal/metrics"
	"f1picks/ingestion/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SyncLineup refreshes drivers and teams from the roster of the season's most
// recently started session
func (s *Service) SyncLineup(ctx context.Context, year int) error {
	sessions, err := s.store.ListSessionsByYear(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	latest := latestStarted(sessions, s.now())
	if latest == nil {
		log.Warn().Int("year", year).Msg("No started sessions, skipping lineup sync")
		return nil
	}

	drivers, err := s.gateway.FetchDrivers(ctx, latest.SessionKey)
	if err != nil {
		return fmt.Errorf("failed to fetch drivers for session %d: %w", latest.SessionKey, err)
	}
	if len(drivers) == 0 {
		log.Warn().Int("session_key", latest.SessionKey).Msg("Provider returned an empty roster, keeping current lineup")
		return nil
	}

	roster, teams := buildRoster(drivers)
	if err := s.store.SaveRoster(ctx, roster); err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}

	metrics.RecordSynced("driver", len(roster))
	metrics.RecordSynced("team", teams)

	log.Info().
		Int("session_key", latest.SessionKey).
		Int("drivers", len(roster)).
		Int("teams", teams).
		Msg("Lineup synchronized")
	return nil
}

// buildRoster pairs each driver with a team deduplicated by name. Team ids are
// provisional; the store keeps the id of a team it already knows.
func buildRoster(drivers []models.DriverInput) ([]models.RosterEntry, int) {
	teams := make(map[string]*models.Team)
	seen := make(map[int]bool, len(drivers))
	roster := make([]models.RosterEntry, 0, len(drivers))

	for i := range drivers {
		di := &drivers[i]
		if seen[di.DriverNumber] {
			continue
		}
		seen[di.DriverNumber] = true

		var team *models.Team
		if di.TeamName != "" {
			team = teams[di.TeamName]
			if team == nil {
				team = &models.Team{ID: uuid.New(), Name: di.TeamName, Colour: di.TeamColour}
				teams[di.TeamName] = team
			}
		}

		roster = append(roster, models.RosterEntry{Driver: di.ToDriver(team), Team: team})
	}

	return roster, len(teams)
}
