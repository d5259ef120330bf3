// Package scoring grades podium predictions against race classifications.
package scoring

import (
	"context"
	"fmt"
	"time"

	"f1picks/ingestion/internal/metrics"
	"f1picks/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Points per correctly predicted podium slot
const (
	PointsP1      = 10
	PointsP2      = 5
	PointsP3      = 3
	PointsPodium  = 15 // bonus when all three slots match
	MaxPoints     = PointsP1 + PointsP2 + PointsP3 + PointsPodium
	DefaultWindow = 24 * time.Hour
)

// Gateway resolves a race's final classification
type Gateway interface {
	FetchFinalPositions(ctx context.Context, sessionKey int) ([]models.PositionInput, error)
}

// Store is the persistence surface the scorer consumes
type Store interface {
	ListRacesEndedBetween(ctx context.Context, from, to time.Time) ([]*models.Session, error)
	ListPredictions(ctx context.Context, sessionKey int) ([]*models.Prediction, error)
	GradePrediction(ctx context.Context, pred *models.Prediction, points int, correct bool) (bool, error)
}

// Score computes the points a prediction earns against the actual podium
func Score(pred *models.Prediction, podium models.Podium) (points int, correct bool) {
	p1 := pred.P1 == podium.P1
	p2 := pred.P2 == podium.P2
	p3 := pred.P3 == podium.P3

	if p1 {
		points += PointsP1
	}
	if p2 {
		points += PointsP2
	}
	if p3 {
		points += PointsP3
	}

	correct = p1 && p2 && p3
	if correct {
		points += PointsPodium
	}
	return points, correct
}

// PodiumFrom resolves the drivers classified first, second and third.
// Reports false when any of the three slots is missing.
func PodiumFrom(positions []models.PositionInput) (models.Podium, bool) {
	var podium models.Podium
	for _, p := range positions {
		switch p.Position {
		case 1:
			if podium.P1 == 0 {
				podium.P1 = p.DriverNumber
			}
		case 2:
			if podium.P2 == 0 {
				podium.P2 = p.DriverNumber
			}
		case 3:
			if podium.P3 == 0 {
				podium.P3 = p.DriverNumber
			}
		}
	}
	return podium, podium.P1 != 0 && podium.P2 != 0 && podium.P3 != 0
}

// Scorer grades predictions of recently finished races
type Scorer struct {
	gateway Gateway
	store   Store
	window  time.Duration
	now     func() time.Time
}

// NewScorer creates a Scorer looking back over window; a non-positive window
// falls back to DefaultWindow
func NewScorer(gateway Gateway, store Store, window time.Duration) *Scorer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scorer{gateway: gateway, store: store, window: window, now: time.Now}
}

// ScoreSummary reports what one scoring run did
type ScoreSummary struct {
	Sessions int
	Graded   int
	Points   int
}

// ScorePendingPredictions grades every ungraded prediction of races that ended
// within the window. A session whose podium cannot be resolved is skipped.
func (s *Scorer) ScorePendingPredictions(ctx context.Context) (*ScoreSummary, error) {
	now := s.now()
	summary := &ScoreSummary{}

	sessions, err := s.store.ListRacesEndedBetween(ctx, now.Add(-s.window), now)
	if err != nil {
		return summary, fmt.Errorf("failed to list recent races: %w", err)
	}

	for _, session := range sessions {
		graded, points, err := s.scoreSession(ctx, session)
		if err != nil {
			return summary, err
		}
		if graded > 0 {
			summary.Sessions++
		}
		summary.Graded += graded
		summary.Points += points
	}

	log.Info().
		Int("races", len(sessions)).
		Int("sessions_scored", summary.Sessions).
		Int("predictions_graded", summary.Graded).
		Int("points_awarded", summary.Points).
		Msg("Prediction scoring complete")

	return summary, nil
}

func (s *Scorer) scoreSession(ctx context.Context, session *models.Session) (int, int, error) {
	logger := log.With().Int("session_key", session.SessionKey).Logger()

	preds, err := s.store.ListPredictions(ctx, session.SessionKey)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list predictions for session %d: %w", session.SessionKey, err)
	}
	if len(preds) == 0 {
		return 0, 0, nil
	}

	for _, p := range preds {
		if p.HasNonzeroPoints() {
			logger.Debug().Msg("Session already scored, skipping")
			return 0, 0, nil
		}
	}

	positions, err := s.gateway.FetchFinalPositions(ctx, session.SessionKey)
	if err != nil {
		metrics.RecordError("scorer", "fetch")
		logger.Warn().Err(err).Msg("Failed to fetch classification, skipping session")
		return 0, 0, nil
	}

	podium, ok := PodiumFrom(positions)
	if !ok {
		logger.Warn().Int("positions", len(positions)).Msg("Podium incomplete, skipping session")
		return 0, 0, nil
	}

	graded, total := 0, 0
	for _, pred := range preds {
		if pred.IsGraded() {
			continue
		}

		points, correct := Score(pred, podium)
		applied, err := s.store.GradePrediction(ctx, pred, points, correct)
		if err != nil {
			return graded, total, fmt.Errorf("failed to grade prediction %d: %w", pred.ID, err)
		}
		if !applied {
			continue
		}

		metrics.RecordGraded(points)
		graded++
		total += points

		logger.Debug().
			Int64("prediction_id", pred.ID).
			Int64("user_id", pred.UserID).
			Int("points", points).
			Bool("correct", correct).
			Msg("Prediction graded")
	}

	logger.Info().
		Int("p1", podium.P1).
		Int("p2", podium.P2).
		Int("p3", podium.P3).
		Int("graded", graded).
		Int("points", total).
		Msg("Race predictions scored")
	return graded, total, nil
}
