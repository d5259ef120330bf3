package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a constructor. Identity is stable per unique name.
type Team struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Colour    string    `db:"colour"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Driver represents a driver keyed by racing number
type Driver struct {
	DriverNumber int           `db:"driver_number"`
	FullName     string        `db:"full_name"`
	NameAcronym  string        `db:"name_acronym"`
	HeadshotURL  string        `db:"headshot_url"`
	CountryCode  string        `db:"country_code"`
	TeamID       uuid.NullUUID `db:"team_id"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// DriverInput is a driver record as returned by the provider
type DriverInput struct {
	DriverNumber int    `json:"driver_number"`
	FullName     string `json:"full_name"`
	NameAcronym  string `json:"name_acronym"`
	HeadshotURL  string `json:"headshot_url"`
	CountryCode  string `json:"country_code"`
	TeamName     string `json:"team_name"`
	TeamColour   string `json:"team_colour"`
	SessionKey   int    `json:"session_key"`
}

// ToDriver converts DriverInput (from API) to Driver model
// Note: team may be nil when the provider reports no team
func (di *DriverInput) ToDriver(team *Team) *Driver {
	driver := &Driver{
		DriverNumber: di.DriverNumber,
		FullName:     di.FullName,
		NameAcronym:  di.NameAcronym,
		HeadshotURL:  di.HeadshotURL,
		CountryCode:  di.CountryCode,
	}

	if team != nil {
		driver.TeamID = uuid.NullUUID{UUID: team.ID, Valid: true}
	}

	return driver
}

// RosterEntry pairs a driver with the team it races for; Team is nil for
// drivers the provider lists without a team
type RosterEntry struct {
	Driver *Driver
	Team   *Team
}
