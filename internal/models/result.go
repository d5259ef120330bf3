package models

import (
	"database/sql"
	"time"
)

// Result is the immutable reconciled outcome of one race session
type Result struct {
	ID         int64          `db:"id"`
	SessionKey int            `db:"session_key"`
	Weather    map[string]any `db:"weather"`
	CreatedAt  time.Time      `db:"created_at"`

	Positions []Position
	Events    []RaceControlEvent
}

// Position pairs a driver's qualifying grid slot with their race finish
type Position struct {
	ID             int64         `db:"id"`
	ResultID       int64         `db:"result_id"`
	DriverNumber   int           `db:"driver_number"`
	GridPosition   sql.NullInt32 `db:"grid_position"`
	FinishPosition int           `db:"finish_position"`
}

// RaceControlEvent is one race-control message attached to a result
type RaceControlEvent struct {
	ID         int64         `db:"id"`
	ResultID   int64         `db:"result_id"`
	OccurredAt time.Time     `db:"occurred_at"`
	Message    string        `db:"message"`
	Flag       string        `db:"flag"`
	Category   string        `db:"category"`
	LapNumber  sql.NullInt32 `db:"lap_number"`
}

// PositionInput is one raw position update from the provider's time series
type PositionInput struct {
	Date         time.Time `json:"date"`
	DriverNumber int       `json:"driver_number"`
	Position     int       `json:"position"`
	SessionKey   int       `json:"session_key"`
	MeetingKey   int       `json:"meeting_key"`
}

// RaceControlInput is a race-control record as returned by the provider
type RaceControlInput struct {
	Date         time.Time `json:"date"`
	Category     string    `json:"category"`
	Flag         *string   `json:"flag"`
	Message      string    `json:"message"`
	LapNumber    *int      `json:"lap_number"`
	DriverNumber *int      `json:"driver_number"`
	Scope        *string   `json:"scope"`
}

// ToEvent converts RaceControlInput (from API) to RaceControlEvent model
// A missing flag becomes the empty string
func (ri *RaceControlInput) ToEvent() RaceControlEvent {
	event := RaceControlEvent{
		OccurredAt: ri.Date,
		Message:    ri.Message,
		Category:   ri.Category,
	}

	if ri.Flag != nil {
		event.Flag = *ri.Flag
	}
	if ri.LapNumber != nil {
		event.LapNumber = sql.NullInt32{Int32: int32(*ri.LapNumber), Valid: true}
	}

	return event
}

// WeatherInput is a free-form weather reading; keys follow the provider
type WeatherInput map[string]any

// AirTemperature returns the numeric air temperature of the reading
func (w WeatherInput) AirTemperature() (float64, bool) {
	switch v := w["air_temperature"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
