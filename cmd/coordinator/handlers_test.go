package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/treeset/internal/coordinator"
	"github.com/dreamware/treeset/internal/protocol"
)

func newTestServer(t *testing.T) (*httptest.Server, *coordinator.Coordinator) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := coordinator.New(context.Background(), coordinator.Config{Logger: logger})
	t.Cleanup(coord.Stop)

	ts := httptest.NewServer(newServer(coord, logger, 2*time.Second).routes())
	t.Cleanup(ts.Close)
	return ts, coord
}

func call(t *testing.T, ts *httptest.Server, path string, id int64, elem int) protocol.Reply {
	t.Helper()
	var reply protocol.Reply
	err := protocol.PostJSON(context.Background(), ts.URL+path, protocol.Request{ID: id, Elem: elem}, &reply)
	require.NoError(t, err)
	return reply
}

// TestHandleOperations runs the basic scenarios over HTTP
func TestHandleOperations(t *testing.T) {
	ts, _ := newTestServer(t)

	assert.Equal(t, protocol.Finished(1), call(t, ts, "/insert", 1, 5))
	assert.Equal(t, protocol.Result(2, true), call(t, ts, "/contains", 2, 5))
	assert.Equal(t, protocol.Finished(3), call(t, ts, "/remove", 3, 5))
	assert.Equal(t, protocol.Result(4, false), call(t, ts, "/contains", 4, 5))
}

// TestHandleOperationsEchoCallerID verifies duplicate caller ids are still answered
func TestHandleOperationsEchoCallerID(t *testing.T) {
	ts, _ := newTestServer(t)

	assert.Equal(t, protocol.Finished(7), call(t, ts, "/insert", 7, 1))
	assert.Equal(t, protocol.Finished(7), call(t, ts, "/insert", 7, 2))
	assert.Equal(t, protocol.Result(7, true), call(t, ts, "/contains", 7, 2))
}

// TestHandleGC verifies a cycle triggered over HTTP keeps the set intact
func TestHandleGC(t *testing.T) {
	ts, coord := newTestServer(t)

	call(t, ts, "/insert", 1, 5)
	call(t, ts, "/insert", 2, 3)
	call(t, ts, "/insert", 3, 8)
	call(t, ts, "/remove", 4, 8)

	err := protocol.PostJSON(context.Background(), ts.URL+"/gc", struct{}{}, nil)
	require.NoError(t, err)

	assert.Equal(t, protocol.Result(5, true), call(t, ts, "/contains", 5, 3))
	assert.Equal(t, protocol.Result(6, false), call(t, ts, "/contains", 6, 8))
	assert.Equal(t, protocol.Result(7, false), call(t, ts, "/contains", 7, 99))

	require.Eventually(t, func() bool { return coord.Stats().Cycles == 1 }, 2*time.Second, 5*time.Millisecond)

	var stats coordinator.Stats
	require.NoError(t, protocol.GetJSON(context.Background(), ts.URL+"/stats", &stats))
	assert.Equal(t, uint64(2), stats.Generation)
	assert.Equal(t, int64(3), stats.Nodes)
	assert.Equal(t, "normal", stats.State)
}

// TestHandlerErrors tests method and body validation
func TestHandlerErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"GET insert", http.MethodGet, "/insert", "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "/contains", "{not json", http.StatusBadRequest},
		{"GET gc", http.MethodGet, "/gc", "", http.StatusMethodNotAllowed},
		{"POST stats", http.MethodPost, "/stats", "", http.StatusMethodNotAllowed},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"unknown path", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

// TestHandleOperationAfterStop maps a stopped coordinator to 503
func TestHandleOperationAfterStop(t *testing.T) {
	ts, coord := newTestServer(t)
	coord.Stop()

	resp, err := http.Post(ts.URL+"/insert", "application/json", strings.NewReader(`{"id":1,"elem":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// TestReplyWireFormat checks the JSON body returned to callers
func TestReplyWireFormat(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/contains", "application/json", strings.NewReader(`{"id":42,"elem":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "contains_result", body["kind"])
	assert.Equal(t, float64(42), body["id"])
	assert.Equal(t, false, body["found"])
}
