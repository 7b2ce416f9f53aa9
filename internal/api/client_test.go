package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `{
  "message": "success",
  "data": [
    {"issue": "24102", "date": "2024-09-04", "front": "05 11 19 27 33", "back": "03 09"},
    {"issue": "24101", "date": "2024/09/02", "front": "01,08,15,22,30", "back": "04,12"},
    {"issue": "24100", "date": "2024-08-31", "front": "01 02 03 04", "back": "01 02"}
  ]
}`

func newTestClient(url string, retries int) *Client {
	return NewClient(&config.API{URL: url, Timeout: time.Second, RetryCount: retries, RetryDelay: time.Millisecond})
}

type recorder struct {
	latency []string
	errors  []string
}

func (r *recorder) RecordLatency(op string, d time.Duration) { r.latency = append(r.latency, op) }
func (r *recorder) RecordError(kind string)                  { r.errors = append(r.errors, kind) }

// TestGetHistoricalData tests conversion, ordering and invalid row skipping
func TestGetHistoricalData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	rec := &recorder{}
	c := newTestClient(srv.URL, 0)
	c.SetRecorder(rec)

	records, err := c.GetHistoricalData(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "24101", records[0].Issue)
	assert.Equal(t, []int{1, 8, 15, 22, 30}, records[0].Front)
	assert.Equal(t, []int{4, 12}, records[0].Back)
	assert.Equal(t, "24102", records[1].Issue)
	assert.Equal(t, []string{"api_fetch"}, rec.latency)
}

// TestFetchLatestDraw tests picking the newest issue
func TestFetchLatestDraw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	latest, err := newTestClient(srv.URL, 0).FetchLatestDraw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "24102", latest.Issue)
	assert.Equal(t, 2024, latest.DrawDate.Year())
}

// TestFetchDrawsRetry tests retry on server errors
func TestFetchDrawsRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL, 3).FetchDraws(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, resp.Data, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// TestFetchDrawsFailure tests exhausted retries and API error messages
func TestFetchDrawsFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"message": "rate limited", "data": []}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	c := newTestClient(srv.URL, 2)
	c.SetRecorder(rec)

	_, err := c.FetchDraws(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"api_fetch"}, rec.errors)

	assert.Error(t, c.HealthCheck(context.Background()))
}

// TestGetHistoricalDataEmpty tests the no data error
func TestGetHistoricalDataEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "success", "data": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).GetHistoricalData(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNoData)
}

// TestFetchDrawsCancelled tests that cancellation stops retries
func TestFetchDrawsCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv.URL, 5).FetchDraws(ctx, 5)
	assert.Error(t, err)
}

// TestConvertAPIData tests validation of upstream rows
func TestConvertAPIData(t *testing.T) {
	rec, err := ConvertAPIData(database.APIDrawData{Issue: "24001", Date: "2024-01-01", Front: "35 1 2 3 4", Back: "12 1"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 35}, rec.Front)
	assert.Equal(t, []int{1, 12}, rec.Back)

	_, err = ConvertAPIData(database.APIDrawData{Issue: "24001", Date: "2024-01-01", Front: "1 2 3 4 36", Back: "1 2"})
	assert.ErrorIs(t, err, database.ErrInvalidDraw)
	_, err = ConvertAPIData(database.APIDrawData{Issue: "24001", Date: "someday", Front: "1 2 3 4 5", Back: "1 2"})
	assert.Error(t, err)
	_, err = ConvertAPIData(database.APIDrawData{Issue: "24001", Date: "2024-01-01", Front: "1 2 x 4 5", Back: "1 2"})
	assert.Error(t, err)
}
