package mockclient

import (
	"context"

	"f1picks/ingestion/internal/models"

	"github.com/stretchr/testify/mock"
)

type Client struct {
	mock.Mock
}

func (c *Client) FetchMeetings(ctx context.Context, year int) ([]models.MeetingInput, error) {
	args := c.Called(ctx, year)

	var res []models.MeetingInput
	if args.Get(0) != nil {
		res = args.Get(0).([]models.MeetingInput)
	}

	return res, args.Error(1)
}

func (c *Client) FetchSessions(ctx context.Context, meetingKey int) ([]models.SessionInput, error) {
	args := c.Called(ctx, meetingKey)

	var res []models.SessionInput
	if args.Get(0) != nil {
		res = args.Get(0).([]models.SessionInput)
	}

	return res, args.Error(1)
}

func (c *Client) FetchDrivers(ctx context.Context, sessionKey int) ([]models.DriverInput, error) {
	args := c.Called(ctx, sessionKey)

	var res []models.DriverInput
	if args.Get(0) != nil {
		res = args.Get(0).([]models.DriverInput)
	}

	return res, args.Error(1)
}

func (c *Client) FetchFinalPositions(ctx context.Context, sessionKey int) ([]models.PositionInput, error) {
	args := c.Called(ctx, sessionKey)

	var res []models.PositionInput
	if args.Get(0) != nil {
		res = args.Get(0).([]models.PositionInput)
	}

	return res, args.Error(1)
}

func (c *Client) FetchRaceControl(ctx context.Context, sessionKey int) ([]models.RaceControlInput, error) {
	args := c.Called(ctx, sessionKey)

	var res []models.RaceControlInput
	if args.Get(0) != nil {
		res = args.Get(0).([]models.RaceControlInput)
	}

	return res, args.Error(1)
}

func (c *Client) FetchWeather(ctx context.Context, sessionKey int) ([]models.WeatherInput, error) {
	args := c.Called(ctx, sessionKey)

	var res []models.WeatherInput
	if args.Get(0) != nil {
		res = args.Get(0).([]models.WeatherInput)
	}

	return res, args.Error(1)
}
