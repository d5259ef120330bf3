package models

import (
	"time"
)

// Meeting represents one Grand Prix weekend
type Meeting struct {
	MeetingKey       int       `db:"meeting_key"`
	Name             string    `db:"meeting_name"`
	OfficialName     string    `db:"official_name"`
	CountryName      string    `db:"country_name"`
	CountryCode      string    `db:"country_code"`
	CircuitShortName string    `db:"circuit_short_name"`
	Location         string    `db:"location"`
	Year             int       `db:"year"`
	DateStart        time.Time `db:"date_start"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// MeetingInput is a meeting record as returned by the provider
type MeetingInput struct {
	MeetingKey       int       `json:"meeting_key"`
	MeetingName      string    `json:"meeting_name"`
	OfficialName     string    `json:"meeting_official_name"`
	Location         string    `json:"location"`
	CountryCode      string    `json:"country_code"`
	CountryName      string    `json:"country_name"`
	CircuitShortName string    `json:"circuit_short_name"`
	DateStart        time.Time `json:"date_start"`
	Year             int       `json:"year"`
}

// ToMeeting converts MeetingInput (from API) to Meeting model
func (mi *MeetingInput) ToMeeting() *Meeting {
	return &Meeting{
		MeetingKey:       mi.MeetingKey,
		Name:             mi.MeetingName,
		OfficialName:     mi.OfficialName,
		CountryName:      mi.CountryName,
		CountryCode:      mi.CountryCode,
		CircuitShortName: mi.CircuitShortName,
		Location:         mi.Location,
		Year:             mi.Year,
		DateStart:        mi.DateStart,
	}
}
