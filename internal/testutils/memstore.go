package testutils

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"f1picks/ingestion/internal/models"
	"f1picks/ingestion/internal/repository"
)

// MemStore is an in-memory stand-in for the PostgreSQL store
type MemStore struct {
	mu sync.Mutex

	Meetings    map[int]*models.Meeting
	Sessions    map[int]*models.Session
	Teams       map[string]*models.Team
	Drivers     map[int]*models.Driver
	Results     map[int]*models.Result
	Predictions map[int64]*models.Prediction
	Users       map[int64]*models.User

	// Counters for asserting write behaviour
	RosterWrites  int
	ResultCreates int

	// FailWrites makes every write return an error
	FailWrites bool
}

// NewMemStore creates an empty MemStore
func NewMemStore() *MemStore {
	return &MemStore{
		Meetings:    make(map[int]*models.Meeting),
		Sessions:    make(map[int]*models.Session),
		Teams:       make(map[string]*models.Team),
		Drivers:     make(map[int]*models.Driver),
		Results:     make(map[int]*models.Result),
		Predictions: make(map[int64]*models.Prediction),
		Users:       make(map[int64]*models.User),
	}
}

var errWrite = fmt.Errorf("memstore: write failed")

func (m *MemStore) UpsertMeeting(_ context.Context, meeting *models.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errWrite
	}
	cp := *meeting
	m.Meetings[meeting.MeetingKey] = &cp
	return nil
}

func (m *MemStore) UpsertSession(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errWrite
	}
	cp := *s
	m.Sessions[s.SessionKey] = &cp
	return nil
}

func (m *MemStore) GetSession(_ context.Context, sessionKey int) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Sessions[sessionKey]
	if !ok {
		return nil, fmt.Errorf("session %d: %w", sessionKey, repository.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *MemStore) ListSessionsByYear(_ context.Context, year int) ([]*models.Session, error) {
	return m.filterSessions(func(s *models.Session) bool { return s.Year == year }), nil
}

func (m *MemStore) ListSessionsByMeeting(_ context.Context, meetingKey int) ([]*models.Session, error) {
	return m.filterSessions(func(s *models.Session) bool { return s.MeetingKey == meetingKey }), nil
}

func (m *MemStore) ListFinishedRacesWithoutResult(_ context.Context, now time.Time) ([]*models.Session, error) {
	return m.filterSessions(func(s *models.Session) bool {
		_, has := m.Results[s.SessionKey]
		return s.IsRace() && s.HasFinished(now) && !has
	}), nil
}

func (m *MemStore) ListRacesEndedBetween(_ context.Context, from, to time.Time) ([]*models.Session, error) {
	return m.filterSessions(func(s *models.Session) bool {
		return s.IsRace() && !s.DateEnd.Before(from) && !s.DateEnd.After(to)
	}), nil
}

func (m *MemStore) filterSessions(keep func(*models.Session) bool) []*models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Session
	for _, s := range m.Sessions {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateStart.Equal(out[j].DateStart) {
			return out[i].DateStart.Before(out[j].DateStart)
		}
		return out[i].SessionKey < out[j].SessionKey
	})
	return out
}

func (m *MemStore) SaveRoster(_ context.Context, roster []models.RosterEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errWrite
	}
	m.RosterWrites++

	for _, entry := range roster {
		if t := entry.Team; t != nil {
			if existing, ok := m.Teams[t.Name]; ok {
				t.ID = existing.ID
			}
			cp := *t
			m.Teams[t.Name] = &cp
		}

		d := *entry.Driver
		d.TeamID.Valid = entry.Team != nil
		if entry.Team != nil {
			d.TeamID.UUID = entry.Team.ID
		}
		m.Drivers[d.DriverNumber] = &d
	}
	return nil
}

func (m *MemStore) KnownDriverNumbers(_ context.Context) (map[int]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	known := make(map[int]bool, len(m.Drivers))
	for n := range m.Drivers {
		known[n] = true
	}
	return known, nil
}

func (m *MemStore) ResultExists(_ context.Context, sessionKey int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Results[sessionKey]
	return ok, nil
}

func (m *MemStore) CreateResult(_ context.Context, result *models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errWrite
	}
	if _, ok := m.Results[result.SessionKey]; ok {
		return fmt.Errorf("session %d: %w", result.SessionKey, repository.ErrResultExists)
	}
	m.ResultCreates++
	result.ID = int64(m.ResultCreates)
	result.CreatedAt = time.Now()
	cp := *result
	m.Results[result.SessionKey] = &cp
	return nil
}

func (m *MemStore) ListPredictions(_ context.Context, sessionKey int) ([]*models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Prediction
	for _, p := range m.Predictions {
		if p.SessionKey == sessionKey {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) GradePrediction(_ context.Context, pred *models.Prediction, points int, correct bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return false, errWrite
	}

	stored, ok := m.Predictions[pred.ID]
	if !ok {
		return false, fmt.Errorf("prediction %d: %w", pred.ID, repository.ErrNotFound)
	}
	if stored.EarnedPoints.Valid {
		return false, nil
	}

	stored.EarnedPoints.Int32, stored.EarnedPoints.Valid = int32(points), true
	stored.Correct.Bool, stored.Correct.Valid = correct, true
	stored.GradedAt.Time, stored.GradedAt.Valid = time.Now(), true

	if points > 0 {
		user, ok := m.Users[pred.UserID]
		if !ok {
			return false, fmt.Errorf("user %d: %w", pred.UserID, repository.ErrNotFound)
		}
		user.Points += points
	}
	return true, nil
}

// AddPrediction seeds a prediction, creating its user on first sight
func (m *MemStore) AddPrediction(p *models.Prediction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[p.UserID]; !ok {
		m.Users[p.UserID] = &models.User{ID: p.UserID, Username: fmt.Sprintf("user%d", p.UserID)}
	}
	cp := *p
	m.Predictions[p.ID] = &cp
}

// Snapshot returns deep-enough copies of the schedule tables for equality checks
func (m *MemStore) Snapshot() (map[int]models.Meeting, map[int]models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meetings := make(map[int]models.Meeting, len(m.Meetings))
	for k, v := range m.Meetings {
		meetings[k] = *v
	}
	sessions := make(map[int]models.Session, len(m.Sessions))
	for k, v := range m.Sessions {
		sessions[k] = *v
	}
	return meetings, sessions
}
