package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rescue-screener/src/export"
	"rescue-screener/src/logger"
	"rescue-screener/src/models"
	"rescue-screener/src/screener"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateStub serves a tiny fixed universe. An optional release channel lets a
// test hold a run open while it checks concurrent requests.
type gateStub struct {
	universe []models.MSymbolSnapshot
	release  chan struct{}
}

func (g *gateStub) FetchUniverse(ctx context.Context) ([]models.MSymbolSnapshot, error) {
	if g.release != nil {
		<-g.release
	}
	return g.universe, nil
}

func (g *gateStub) FetchHistory(ctx context.Context, code string, minDays int) ([]models.MDailyBar, error) {
	return nil, nil
}

func (g *gateStub) BasicInfo(code string) (models.MSymbolSnapshot, bool) {
	return models.MSymbolSnapshot{}, false
}

func (g *gateStub) CallStatistics() models.MCallStats {
	return models.MCallStats{TotalCalls: 7, SuccessfulCalls: 7, SuccessRate: 100, Verified: true}
}

// -----------------------------------------------------------------------------

func newTestServer(t *testing.T, gw *gateStub) *Server {
	t.Helper()

	cfg := &models.MConfig{
		Name:      "test",
		Host:      "127.0.0.1",
		Port:      8000,
		LogLevel:  "ERROR",
		ExportDir: t.TempDir(),
		Screener:  models.MScreenerConfig{MaxSymbols: 100, PrimaryMinDays: 5, ExtendedMinDays: 10, FirstBoardLookback: 3},
	}

	log := logger.NewLogger("ERROR", "test")
	sc := screener.NewScreener(gw, cfg.Screener, log)
	exp := export.NewCSVExporter(cfg.ExportDir, log)
	return NewServer(cfg, sc, gw, exp, log)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func waitForState(t *testing.T, s *Server, state string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if run := s.latestRun(); run != nil && run.State() == state {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run never reached state %q", state)
}

// -----------------------------------------------------------------------------

func TestGetHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &gateStub{})
	w := doRequest(s, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["running"])
	assert.Equal(t, float64(0), body["connections"])
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &gateStub{})
	w := doRequest(s, http.MethodGet, "/api/stats", "")

	require.Equal(t, http.StatusOK, w.Code)

	var stats models.MCallStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 7, stats.TotalCalls)
	assert.True(t, stats.Verified)
}

func TestResultsBeforeAnyRun(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &gateStub{})

	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/results", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodPost, "/export/csv", "").Code)

	w := doRequest(s, http.MethodGet, "/progress", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.RunStateIdle, body["status"])
}

func TestScreenLifecycle(t *testing.T) {
	t.Parallel()

	gw := &gateStub{universe: []models.MSymbolSnapshot{
		{Code: "600000", Name: "浦发银行"},
		{Code: "000001", Name: "平安银行"},
	}}
	s := newTestServer(t, gw)

	w := doRequest(s, http.MethodPost, "/screen", `{"target_date":"2026-08-28","max_symbols":10}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	waitForState(t, s, models.RunStateCompleted)

	w = doRequest(s, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status models.MRunStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.RunStateCompleted, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, 2, status.Evaluated)
	assert.Equal(t, "2026-08-28", status.TargetDate)

	// Results are served once the run completes; both symbols were skipped
	// for lack of history, so the set is empty but the summary exists.
	w = doRequest(s, http.MethodGet, "/results", "")
	require.Equal(t, http.StatusOK, w.Code)

	// Export now succeeds too.
	w = doRequest(s, http.MethodPost, "/export/csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "rescue_stocks_")
}

func TestConcurrentScreenRejected(t *testing.T) {
	t.Parallel()

	gw := &gateStub{
		universe: []models.MSymbolSnapshot{{Code: "600000", Name: "浦发银行"}},
		release:  make(chan struct{}),
	}
	s := newTestServer(t, gw)

	first := doRequest(s, http.MethodPost, "/screen", "")
	require.Equal(t, http.StatusAccepted, first.Code)

	second := doRequest(s, http.MethodPost, "/screen", "")
	assert.Equal(t, http.StatusConflict, second.Code)

	close(gw.release)
	waitForState(t, s, models.RunStateCompleted)
}

func TestStopShutsDownHubCleanly(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &gateStub{})
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		s.handleWebsockets()
	}()

	require.NoError(t, s.Stop())

	select {
	case <-hubDone:
	case <-time.After(2 * time.Second):
		t.Fatal("hub loop did not exit after Stop")
	}

	// Late producers must be harmless no-ops after shutdown.
	s.Broadcast(models.MRunStatus{Status: models.RunStateCompleted})
	require.NoError(t, s.Stop())
}

func TestStopReleasesConnectedClients(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &gateStub{})
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		s.handleWebsockets()
	}()

	client := &Client{hub: s, send: make(chan models.MRunStatus, 256)}
	s.register <- client

	// The hub greets a new client with the current run state.
	initial := <-client.send
	assert.Equal(t, models.RunStateIdle, initial.Status)
	assert.Equal(t, int64(1), s.clientCount.Load())

	require.NoError(t, s.Stop())
	<-hubDone

	// The client's send channel is closed on the way out, which ends its
	// write pump.
	_, open := <-client.send
	assert.False(t, open)
	assert.Equal(t, int64(0), s.clientCount.Load())
}

func TestBroadcastAfterStopDoesNotPanic(t *testing.T) {
	t.Parallel()

	gw := &gateStub{universe: []models.MSymbolSnapshot{{Code: "600000", Name: "浦发银行"}}}
	s := newTestServer(t, gw)
	go s.handleWebsockets()

	// Start a run, stop the server mid-flight, and let the run goroutine
	// publish its terminal snapshot into the stopped hub.
	first := doRequest(s, http.MethodPost, "/screen", "")
	require.Equal(t, http.StatusAccepted, first.Code)

	require.NoError(t, s.Stop())
	waitForState(t, s, models.RunStateCompleted)
}

func TestScreenBatch(t *testing.T) {
	t.Parallel()

	gw := &gateStub{universe: []models.MSymbolSnapshot{
		{Code: "600000", Name: "浦发银行"},
		{Code: "000001", Name: "平安银行"},
		{Code: "603999", Name: "读者传媒"},
	}}
	s := newTestServer(t, gw)

	w := doRequest(s, http.MethodPost, "/screen/batch", `{"offset":0,"size":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.MBatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, result.TotalSymbols)
	assert.Equal(t, 2, result.ProcessedCount)
	assert.True(t, result.HasMore)
}
