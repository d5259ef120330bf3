package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, r http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithRetryDelay(time.Millisecond)}, opts...)
	return NewClient(srv.URL, "", 5*time.Second, opts...)
}

func TestFetchMeetings(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/meetings", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "2024", req.URL.Query().Get("year"))
		w.Write([]byte(`[{"meeting_key":1229,"meeting_name":"Bahrain Grand Prix","country_name":"Bahrain","circuit_short_name":"Sakhir","year":2024,"date_start":"2024-02-29T11:30:00+00:00"}]`))
	})

	c := newTestClient(t, r)
	meetings, err := c.FetchMeetings(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, 1229, meetings[0].MeetingKey)
	assert.Equal(t, "Bahrain Grand Prix", meetings[0].MeetingName)
	assert.Equal(t, "Sakhir", meetings[0].CircuitShortName)
}

func TestFetch_EmptyArrayIsNotAnError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/race_control", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[]`))
	})
	r.Get("/weather", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"No results found."}`))
	})

	c := newTestClient(t, r)

	events, err := c.FetchRaceControl(context.Background(), 9472)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	weather, err := c.FetchWeather(context.Background(), 9472)
	require.NoError(t, err)
	assert.NotNil(t, weather)
	assert.Empty(t, weather)
}

func TestFetch_StatusErrorIsTyped(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/drivers", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, r)
	_, err := c.FetchDrivers(context.Background(), 9472)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, EndpointDrivers, fe.Endpoint)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.True(t, IsFetchError(err))
}

func TestFetch_DecodeErrorIsTyped(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/sessions", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"not":"an array"`))
	})

	c := newTestClient(t, r)
	_, err := c.FetchSessions(context.Background(), 1229)
	assert.True(t, IsFetchError(err))
}

func TestFetch_RetriesUnavailable(t *testing.T) {
	var calls int32
	r := chi.NewRouter()
	r.Get("/position", func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"date":"2024-03-02T17:00:00Z","driver_number":1,"position":1,"session_key":9472,"meeting_key":1229}]`))
	})

	c := newTestClient(t, r, WithMaxRetries(3))
	positions, err := c.FetchPositions(context.Background(), 9472)
	require.NoError(t, err)
	assert.Len(t, positions, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	r := chi.NewRouter()
	r.Get("/position", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	c := newTestClient(t, r, WithMaxRetries(2))
	_, err := c.FetchPositions(context.Background(), 9472)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_NoRetryOnAuthError(t *testing.T) {
	var calls int32
	r := chi.NewRouter()
	r.Get("/meetings", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	c := newTestClient(t, r, WithMaxRetries(3))
	_, err := c.FetchMeetings(context.Background(), 2024)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetch_SendsAPIKey(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/meetings", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer token-123", req.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	c := NewClient(srv.URL, "token-123", time.Second)
	_, err := c.FetchMeetings(context.Background(), 2024)
	assert.NoError(t, err)
}

func TestFetch_ResponseCache(t *testing.T) {
	var calls int32
	r := chi.NewRouter()
	r.Get("/drivers", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`[{"driver_number":1,"full_name":"Max VERSTAPPEN","team_name":"Red Bull Racing"}]`))
	})

	c := newTestClient(t, r, WithResponseCache(16, time.Minute))
	for i := 0; i < 3; i++ {
		drivers, err := c.FetchDrivers(context.Background(), 9472)
		require.NoError(t, err)
		require.Len(t, drivers, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err := c.FetchDrivers(context.Background(), 9473)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchFinalPositions(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/position", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[
			{"date":"2024-03-02T15:00:00Z","driver_number":16,"position":1},
			{"date":"2024-03-02T15:00:00Z","driver_number":1,"position":2},
			{"date":"2024-03-02T16:30:00Z","driver_number":1,"position":1},
			{"date":"2024-03-02T16:30:00Z","driver_number":16,"position":2},
			{"date":"2024-03-02T15:00:00Z","driver_number":55,"position":3}
		]`))
	})

	c := newTestClient(t, r)
	positions, err := c.FetchFinalPositions(context.Background(), 9472)
	require.NoError(t, err)
	require.Len(t, positions, 3)

	assert.Equal(t, map[int]int{1: 1, 16: 2, 55: 3}, PositionByDriver(positions))
	assert.Equal(t, 1, positions[0].DriverNumber)
}
