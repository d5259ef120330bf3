package ingest

import (
	"strconv"
	"testing"
	"time"

	"f1picks/ingestion/internal/client"
	"f1picks/ingestion/internal/models"
	"f1picks/ingestion/internal/testutils"
)

var (
	_ Store   = (*testutils.MemStore)(nil)
	_ Gateway = (*client.Client)(nil)
)

// testNow sits the day after the Bahrain race and a week before Jeddah
var testNow = time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC)

const (
	bahrainKey    = 1229
	jeddahKey     = 1230
	practiceKey   = 9468
	qualifyingKey = 9471
	raceKey       = 9472
	futureRaceKey = 9480
)

func at(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
}

func key(n int) string {
	return strconv.Itoa(n)
}

func flag(s string) *string {
	return &s
}

type fixture struct {
	server  *testutils.FakeOpenF1Server
	store   *testutils.MemStore
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	server := testutils.NewFakeOpenF1Server()
	t.Cleanup(server.Close)

	gw := client.NewClient(server.URL(), "", 5*time.Second, client.WithMaxRetries(0))
	store := testutils.NewMemStore()

	return &fixture{
		server:  server,
		store:   store,
		service: NewService(gw, store, WithClock(func() time.Time { return testNow })),
	}
}

// withSchedule registers two meetings and their sessions with the provider
func (f *fixture) withSchedule() *fixture {
	f.server.Set("meetings", "2024", []models.MeetingInput{
		{MeetingKey: bahrainKey, MeetingName: "Bahrain Grand Prix", CountryName: "Bahrain", CircuitShortName: "Sakhir", Year: 2024, DateStart: at(1, 11).AddDate(0, 0, -1)},
		{MeetingKey: jeddahKey, MeetingName: "Saudi Arabian Grand Prix", CountryName: "Saudi Arabia", CircuitShortName: "Jeddah", Year: 2024, DateStart: at(7, 13)},
	})
	f.server.Set("sessions", key(bahrainKey), []models.SessionInput{
		{SessionKey: practiceKey, MeetingKey: bahrainKey, SessionName: "Practice 1", SessionType: "Practice", DateStart: at(1, 11).AddDate(0, 0, -1), DateEnd: at(1, 12).AddDate(0, 0, -1), Year: 2024},
		{SessionKey: qualifyingKey, MeetingKey: bahrainKey, SessionName: "Qualifying", SessionType: "Qualifying", DateStart: at(1, 16), DateEnd: at(1, 17), Year: 2024},
		{SessionKey: raceKey, MeetingKey: bahrainKey, SessionName: "Race", SessionType: "Race", DateStart: at(2, 15), DateEnd: at(2, 17), Year: 2024},
	})
	f.server.Set("sessions", key(jeddahKey), []models.SessionInput{
		{SessionKey: futureRaceKey, MeetingKey: jeddahKey, SessionName: "Race", SessionType: "Race", DateStart: at(9, 17), DateEnd: at(9, 19), Year: 2024},
	})
	return f
}

// withRoster registers the race roster with the provider
func (f *fixture) withRoster() *fixture {
	f.server.Set("drivers", key(raceKey), []models.DriverInput{
		{DriverNumber: 1, FullName: "Max VERSTAPPEN", NameAcronym: "VER", TeamName: "Red Bull Racing", TeamColour: "3671C6"},
		{DriverNumber: 11, FullName: "Sergio PEREZ", NameAcronym: "PER", TeamName: "Red Bull Racing", TeamColour: "3671C6"},
		{DriverNumber: 55, FullName: "Carlos SAINZ", NameAcronym: "SAI", TeamName: "Ferrari", TeamColour: "E8002D"},
		{DriverNumber: 16, FullName: "Charles LECLERC", NameAcronym: "LEC", TeamName: "Ferrari", TeamColour: "E8002D"},
	})
	return f
}

// withClassification registers race and qualifying position series
func (f *fixture) withClassification() *fixture {
	f.server.Set("position", key(raceKey), []models.PositionInput{
		{Date: at(2, 15), DriverNumber: 16, Position: 1},
		{Date: at(2, 15), DriverNumber: 1, Position: 2},
		{Date: at(2, 15), DriverNumber: 11, Position: 5},
		{Date: at(2, 15), DriverNumber: 55, Position: 4},
		{Date: at(2, 16), DriverNumber: 1, Position: 1},
		{Date: at(2, 16), DriverNumber: 16, Position: 4},
		{Date: at(2, 16), DriverNumber: 11, Position: 2},
		{Date: at(2, 16), DriverNumber: 55, Position: 3},
		{Date: at(2, 16), DriverNumber: 99, Position: 5},
	})
	f.server.Set("position", key(qualifyingKey), []models.PositionInput{
		{Date: at(1, 16), DriverNumber: 1, Position: 1},
		{Date: at(1, 16), DriverNumber: 16, Position: 2},
		{Date: at(1, 16), DriverNumber: 55, Position: 4},
		{Date: at(1, 16), DriverNumber: 11, Position: 5},
	})
	return f
}

// seeded runs the schedule and lineup syncs against the registered provider data
func (f *fixture) seeded(t *testing.T) *fixture {
	t.Helper()
	meetings, err := f.service.FetchSeasonMeetings(t.Context(), 2024)
	if err != nil {
		t.Fatalf("fetch meetings: %v", err)
	}
	if _, err := f.service.SyncSchedule(t.Context(), meetings); err != nil {
		t.Fatalf("sync schedule: %v", err)
	}
	if err := f.service.SyncLineup(t.Context(), 2024); err != nil {
		t.Fatalf("sync lineup: %v", err)
	}
	return f
}
