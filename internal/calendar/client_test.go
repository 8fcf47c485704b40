package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftlens/schedule-worker/internal/extract"
)

func testShifts() []extract.ShiftCandidate {
	date := time.Date(2025, time.August, 10, 0, 0, 0, 0, time.Local)
	return []extract.ShiftCandidate{
		{
			Date:       date,
			Start:      date.Add(23 * time.Hour),
			End:        date.Add(31 * time.Hour),
			SourceText: "11p-7a",
		},
	}
}

func TestPushEventsSuccess(t *testing.T) {
	var got pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/events/batch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(pushResponse{Success: true, Created: len(got.Events)})
	}))
	defer srv.Close()

	created, err := NewClient(srv.URL).PushEvents(context.Background(), "job-1", "Sonu", testShifts())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	require.Len(t, got.Events, 1)
	assert.Equal(t, "job-1", got.Events[0].JobID)
	assert.Equal(t, "Sonu", got.Events[0].PersonName)
	assert.Equal(t, "2025-08-10", got.Events[0].Date)
	assert.Equal(t, "11p-7a", got.Events[0].SourceText)
}

func TestPushEventsPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).PushEvents(context.Background(), "job-1", "Sonu", testShifts())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPushEventsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).PushEvents(context.Background(), "job-1", "Sonu", testShifts())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}

func TestPushEventsUnsuccessfulResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pushResponse{Success: false, Error: "quota exceeded"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).PushEvents(context.Background(), "job-1", "Sonu", testShifts())
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestPushEventsEmptyShiftsIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty shift list")
	}))
	defer srv.Close()

	created, err := NewClient(srv.URL).PushEvents(context.Background(), "job-1", "Sonu", nil)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, NewClient(srv.URL).HealthCheck(context.Background()))
}

func TestHealthCheckFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.Error(t, NewClient(srv.URL).HealthCheck(context.Background()))
}
