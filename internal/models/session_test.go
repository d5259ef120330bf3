package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Predicates(t *testing.T) {
	now := time.Date(2024, time.March, 2, 18, 0, 0, 0, time.UTC)

	race := &Session{Name: "Race", DateStart: now.Add(-3 * time.Hour), DateEnd: now.Add(-time.Hour)}
	assert.True(t, race.IsRace())
	assert.False(t, race.IsQualifying())
	assert.True(t, race.HasStarted(now))
	assert.True(t, race.HasFinished(now))

	sprintQuali := &Session{Name: "Sprint Qualifying"}
	assert.True(t, sprintQuali.IsQualifying())
	assert.False(t, sprintQuali.IsRace())

	sprint := &Session{Name: "Sprint", Type: "Race"}
	assert.False(t, sprint.IsRace(), "sprints are not scored as races")

	upcoming := &Session{Name: "RACE", DateStart: now.Add(time.Hour), DateEnd: now.Add(3 * time.Hour)}
	assert.True(t, upcoming.IsRace())
	assert.False(t, upcoming.HasStarted(now))
	assert.False(t, upcoming.HasFinished(now))
}

func TestSessionInput_ToSessionCarriesMeetingFields(t *testing.T) {
	meeting := &Meeting{
		MeetingKey:       1229,
		Name:             "Bahrain Grand Prix",
		CountryName:      "Bahrain",
		CircuitShortName: "Sakhir",
		Year:             2024,
	}
	input := &SessionInput{SessionKey: 9472, MeetingKey: 1229, SessionName: "Race", SessionType: "Race"}

	session := input.ToSession(meeting)

	assert.Equal(t, 9472, session.SessionKey)
	assert.Equal(t, "Bahrain Grand Prix", session.MeetingName)
	assert.Equal(t, "Bahrain", session.CountryName)
	assert.Equal(t, "Sakhir", session.CircuitShortName)
	assert.Equal(t, 2024, session.Year)
}

func TestRaceControlInput_ToEventDefaultsFlag(t *testing.T) {
	lap := 12
	flag := "RED"

	withFlag := (&RaceControlInput{Message: "RED FLAG", Flag: &flag, LapNumber: &lap}).ToEvent()
	assert.Equal(t, "RED", withFlag.Flag)
	assert.Equal(t, int32(12), withFlag.LapNumber.Int32)

	withoutFlag := (&RaceControlInput{Message: "SAFETY CAR DEPLOYED", Category: "SafetyCar"}).ToEvent()
	assert.Equal(t, "", withoutFlag.Flag)
	assert.Equal(t, "SafetyCar", withoutFlag.Category)
	assert.False(t, withoutFlag.LapNumber.Valid)
}

func TestWeatherInput_AirTemperature(t *testing.T) {
	temp, ok := WeatherInput{"air_temperature": 27.5}.AirTemperature()
	assert.True(t, ok)
	assert.Equal(t, 27.5, temp)

	_, ok = WeatherInput{"humidity": 40.0}.AirTemperature()
	assert.False(t, ok)
}
