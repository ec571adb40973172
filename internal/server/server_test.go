package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/algotrade/tradecal/internal/database"
	"github.com/algotrade/tradecal/internal/scheduler"
	testutil "github.com/algotrade/tradecal/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Run() error   { j.runs++; return j.err }

type pingModule struct{}

func (pingModule) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func newTestServer(t *testing.T, dbs map[string]*database.DB, jobs ...scheduler.Job) (*Server, *scheduler.Scheduler) {
	t.Helper()
	sched := scheduler.New(zerolog.Nop(), time.UTC)
	for _, job := range jobs {
		require.NoError(t, sched.AddJob("0 0 4 * * *", job))
	}

	system := NewSystemHandlers(zerolog.Nop(), t.TempDir(), "", dbs, sched)
	system.SetJobs(jobs...)

	return New(Config{
		Log:     zerolog.Nop(),
		Port:    0,
		DevMode: true,
		Version: "test",
		System:  system,
		Modules: []RouteRegistrar{pingModule{}},
	}), sched
}

func get(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := get(t, s, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "test", response["version"])
	assert.Equal(t, "tradecal", response["service"])
}

func TestModulesMountedUnderAPI(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := get(t, s, http.MethodGet, "/api/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, s, http.MethodGet, "/ping").Code)
}

func TestSystemHandlers_HandleSystemStatus(t *testing.T) {
	cache, closeCache := testutil.NewTestDB(t, "cache")
	defer closeCache()
	reportsDB, closeReports := testutil.NewTestDB(t, "reports")
	defer closeReports()

	s, _ := newTestServer(t, map[string]*database.DB{"cache": cache, "reports": reportsDB})

	w := get(t, s, http.MethodGet, "/api/system/status")
	require.Equal(t, http.StatusOK, w.Code)

	var response SystemStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, map[string]string{"cache": "ok", "reports": "ok"}, response.Databases)
	assert.NotEmpty(t, response.StartedAt)

	require.NoError(t, reportsDB.Close())
	w = get(t, s, http.MethodGet, "/api/system/status")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.Status)
	assert.NotEqual(t, "ok", response.Databases["reports"])
}

func TestSystemHandlers_HandleJobsStatus(t *testing.T) {
	s, _ := newTestServer(t, nil, &countingJob{name: "session_report"}, &countingJob{name: "check_databases"})

	w := get(t, s, http.MethodGet, "/api/system/jobs")
	require.Equal(t, http.StatusOK, w.Code)

	var response JobsStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.TotalJobs)
	assert.Equal(t, "check_databases", response.Jobs[0].Name)
	assert.Equal(t, "0 0 4 * * *", response.Jobs[0].Schedule)
}

func TestSystemHandlers_HandleTriggerJob(t *testing.T) {
	ok := &countingJob{name: "refresh_holidays"}
	failing := &countingJob{name: "check_databases", err: errors.New("database cache is corrupted")}
	s, _ := newTestServer(t, nil, ok, failing)

	tests := []struct {
		target string
		status int
	}{
		{"/api/system/jobs/refresh_holidays/run", http.StatusOK},
		{"/api/system/jobs/check_databases/run", http.StatusInternalServerError},
		{"/api/system/jobs/unknown/run", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(t, s, http.MethodPost, tt.target)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
}

func TestSystemHandlers_HandleDatabaseStats(t *testing.T) {
	cache, closeCache := testutil.NewTestDB(t, "cache")
	defer closeCache()

	s, _ := newTestServer(t, map[string]*database.DB{"cache": cache, "missing": nil})

	w := get(t, s, http.MethodGet, "/api/system/database")
	require.Equal(t, http.StatusOK, w.Code)

	var response DatabaseStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Databases, 1)
	assert.Equal(t, "cache", response.Databases[0].Name)
	assert.Equal(t, cache.Path(), response.Databases[0].Path)
	assert.GreaterOrEqual(t, response.TotalSizeMB, 0.0)
}

func TestSystemHandlers_HandleDiskUsage(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := get(t, s, http.MethodGet, "/api/system/disk")
	require.Equal(t, http.StatusOK, w.Code)

	var response DiskUsageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0.0, response.TotalMB)
}
