package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Dispatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/dispatch", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req DispatchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "backfill", req.WorkType)
		assert.Equal(t, []string{"backfill_target"}, req.Options)

		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(DispatchResponse{TaskID: "t1", Queue: "dispatch", WorkType: "backfill", Status: "pending"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/").WithToken("tok")
	resp, err := c.Dispatch(context.Background(), DispatchRequest{WorkType: "backfill", Options: []string{"backfill_target"}})
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.TaskID)
}

func TestClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"未知的阶段: x"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Dispatch(context.Background(), DispatchRequest{WorkType: "x"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "未知的阶段")
}

func TestClient_Lists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/work-types":
			_, _ = w.Write([]byte(`{"items":[{"work_type":"backfill","setting":"backfillthreads"}],"total":1}`))
		case "/api/v1/dispatch/active":
			assert.Equal(t, "releases", r.URL.Query().Get("work_type"))
			_, _ = w.Write([]byte(`{"items":[{"run_id":"r1","work_type":"releases"}],"total":1}`))
		case "/api/v1/runs":
			assert.Equal(t, "fail", r.URL.Query().Get("status"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`{"items":[{"run_id":"r2","status":"fail"}],"total":7}`))
		case "/api/v1/runs/r2":
			_, _ = w.Write([]byte(`{"run_id":"r2","status":"fail","items":4}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL)

	wts, err := c.WorkTypes(ctx)
	require.NoError(t, err)
	require.Len(t, wts, 1)
	assert.Equal(t, "backfillthreads", wts[0].Setting)

	active, err := c.Active(ctx, "releases")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "r1", active[0].RunID)

	runs, total, err := c.Runs(ctx, RunFilter{Status: "fail", Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, runs, 1)

	run, err := c.Run(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, 4, run.Items)

	_, err = c.Run(ctx, "missing")
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestDispatchWithRetry(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"task_id":"t3"}`))
		}))
		defer srv.Close()

		resp, err := DispatchWithRetry(context.Background(), NewClient(srv.URL), DispatchRequest{WorkType: "binaries"}, fastRetry())
		require.NoError(t, err)
		assert.Equal(t, "t3", resp.TaskID)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		_, err := DispatchWithRetry(context.Background(), NewClient(srv.URL), DispatchRequest{WorkType: "binaries"}, fastRetry())
		assert.True(t, IsStatus(err, http.StatusConflict))
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("gives up", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := DispatchWithRetry(context.Background(), NewClient(srv.URL), DispatchRequest{WorkType: "binaries"}, fastRetry())
		require.Error(t, err)
		assert.True(t, IsStatus(err, http.StatusInternalServerError))
		assert.EqualValues(t, 4, calls.Load())
	})
}
