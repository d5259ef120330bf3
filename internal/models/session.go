package models

import (
	"strings"
	"time"
)

// SessionNameRace is the provider's session name for the Grand Prix itself
const SessionNameRace = "Race"

// Session represents one timed activity within a meeting (practice, qualifying, race)
type Session struct {
	SessionKey int       `db:"session_key"`
	MeetingKey int       `db:"meeting_key"`
	Name       string    `db:"session_name"`
	Type       string    `db:"session_type"`
	DateStart  time.Time `db:"date_start"`
	DateEnd    time.Time `db:"date_end"`

	// Denormalized meeting fields
	MeetingName      string `db:"meeting_name"`
	CountryName      string `db:"country_name"`
	CircuitShortName string `db:"circuit_short_name"`
	Year             int    `db:"year"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsRace reports whether the session is a Grand Prix race (sprints excluded)
func (s *Session) IsRace() bool {
	return strings.EqualFold(s.Name, SessionNameRace)
}

// IsQualifying reports whether the session name mentions qualifying
func (s *Session) IsQualifying() bool {
	return strings.Contains(strings.ToLower(s.Name), "qualifying")
}

// HasFinished reports whether the session ended strictly before now
func (s *Session) HasFinished(now time.Time) bool {
	return s.DateEnd.Before(now)
}

// HasStarted reports whether the session started at or before now
func (s *Session) HasStarted(now time.Time) bool {
	return !s.DateStart.After(now)
}

// SessionInput is a session record as returned by the provider
type SessionInput struct {
	SessionKey       int       `json:"session_key"`
	MeetingKey       int       `json:"meeting_key"`
	SessionName      string    `json:"session_name"`
	SessionType      string    `json:"session_type"`
	DateStart        time.Time `json:"date_start"`
	DateEnd          time.Time `json:"date_end"`
	CountryName      string    `json:"country_name"`
	CircuitShortName string    `json:"circuit_short_name"`
	Year             int       `json:"year"`
}

// ToSession converts SessionInput (from API) to Session model, carrying the
// parent meeting's fields forward
func (si *SessionInput) ToSession(meeting *Meeting) *Session {
	session := &Session{
		SessionKey:       si.SessionKey,
		MeetingKey:       si.MeetingKey,
		Name:             si.SessionName,
		Type:             si.SessionType,
		DateStart:        si.DateStart,
		DateEnd:          si.DateEnd,
		CountryName:      si.CountryName,
		CircuitShortName: si.CircuitShortName,
		Year:             si.Year,
	}

	if meeting != nil {
		session.MeetingKey = meeting.MeetingKey
		session.MeetingName = meeting.Name
		session.CountryName = meeting.CountryName
		session.CircuitShortName = meeting.CircuitShortName
		session.Year = meeting.Year
	}

	return session
}
