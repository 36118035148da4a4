package openf1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scuderia-bot/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return log
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "2025", "Spain", time.Second, testLogger(t))
}

func TestFetchDrivers(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/meetings":
			assert.Equal(t, "2025", r.URL.Query().Get("year"))
			assert.Equal(t, "Spain", r.URL.Query().Get("country_name"))
			w.Write([]byte(`[{"meeting_key": 1262}]`))
		case "/v1/drivers":
			assert.Equal(t, "1262", r.URL.Query().Get("meeting_key"))
			w.Write([]byte(`[
				{"team_name": "Red Bull Racing", "first_name": "Max", "last_name": "Verstappen"},
				{"team_name": "Ferrari", "first_name": "Charles", "last_name": "Leclerc"}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	drivers, err := client.FetchDrivers(context.Background())
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "Red Bull Racing", drivers[0].TeamName)
	assert.Equal(t, "Max", drivers[0].FirstName)
	assert.Equal(t, "Verstappen", drivers[0].LastName)
}

func TestFetchDrivers_NoMeetings(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	_, err := client.FetchDrivers(context.Background())
	assert.ErrorContains(t, err, "no meetings found")
}

func TestFetchDrivers_EmptyDriverPayload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meetings" {
			w.Write([]byte(`[{"meeting_key": 7}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))

	_, err := client.FetchDrivers(context.Background())
	assert.ErrorContains(t, err, "no driver data")
}

func TestFetchDrivers_UpstreamError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.FetchDrivers(context.Background())
	assert.ErrorContains(t, err, "unexpected status 502")
}

func TestFetchDrivers_MalformedJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))

	_, err := client.FetchDrivers(context.Background())
	assert.ErrorContains(t, err, "failed to decode")
}
