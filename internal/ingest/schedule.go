package ingest

import (
	"context"
	"fmt"
	"time"

	"f1picks/ingestion/internal/metrics"
	"f1picks/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// FetchSeasonMeetings loads the provider's meeting list for a season
func (s *Service) FetchSeasonMeetings(ctx context.Context, year int) ([]models.MeetingInput, error) {
	meetings, err := s.gateway.FetchMeetings(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meetings for %d: %w", year, err)
	}

	log.Info().Int("year", year).Int("count", len(meetings)).Msg("Meetings fetched")
	return meetings, nil
}

// SyncSchedule upserts every meeting and its sessions. A meeting whose
// sessions cannot be fetched is skipped. Returns the number of sessions written.
func (s *Service) SyncSchedule(ctx context.Context, meetings []models.MeetingInput) (int, error) {
	saved := 0

	for i := range meetings {
		meeting := meetings[i].ToMeeting()
		if err := s.store.UpsertMeeting(ctx, meeting); err != nil {
			return saved, fmt.Errorf("failed to save meeting %d: %w", meeting.MeetingKey, err)
		}

		sessions, err := s.gateway.FetchSessions(ctx, meeting.MeetingKey)
		if err != nil {
			metrics.RecordError("schedule", "fetch_sessions")
			log.Warn().Err(err).Int("meeting_key", meeting.MeetingKey).Msg("Failed to fetch sessions, skipping meeting")
			continue
		}

		for j := range sessions {
			session := sessions[j].ToSession(meeting)
			if err := s.store.UpsertSession(ctx, session); err != nil {
				return saved, fmt.Errorf("failed to save session %d: %w", session.SessionKey, err)
			}
			saved++
		}

		log.Debug().
			Int("meeting_key", meeting.MeetingKey).
			Str("meeting", meeting.Name).
			Int("sessions", len(sessions)).
			Msg("Meeting synchronized")
	}

	metrics.RecordSynced("meeting", len(meetings))
	metrics.RecordSynced("session", saved)

	log.Info().Int("meetings", len(meetings)).Int("sessions", saved).Msg("Schedule synchronized")
	return saved, nil
}

// latestStarted returns the session with the greatest start time not after now
func latestStarted(sessions []*models.Session, now time.Time) *models.Session {
	var latest *models.Session
	for _, sess := range sessions {
		if !sess.HasStarted(now) {
			continue
		}
		if latest == nil || sess.DateStart.After(latest.DateStart) {
			latest = sess
		}
	}
	return latest
}
