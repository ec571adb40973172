package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/algotrade/tradecal/internal/database"
	"github.com/algotrade/tradecal/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// JobScheduler lists registered jobs and runs them on demand
type JobScheduler interface {
	Jobs() []scheduler.JobInfo
	RunNow(job scheduler.Job) error
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status     string            `json:"status"`
	StartedAt  string            `json:"started_at"`
	Uptime     string            `json:"uptime"`
	CPUPercent float64           `json:"cpu_percent"`
	RAMPercent float64           `json:"ram_percent"`
	Databases  map[string]string `json:"databases"`
}

// JobsStatusResponse is the payload of GET /api/system/jobs
type JobsStatusResponse struct {
	TotalJobs int                 `json:"total_jobs"`
	Jobs      []scheduler.JobInfo `json:"jobs"`
}

// DBInfo describes one database file
type DBInfo struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	SizeMB float64 `json:"size_mb"`
}

// DatabaseStatsResponse is the payload of GET /api/system/database
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DiskUsageResponse is the payload of GET /api/system/disk
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	ExportsMB float64 `json:"exports_mb"`
	TotalMB   float64 `json:"total_mb"`
}

// SystemHandlers serves process, database and job status
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	exportDir   string
	startupTime time.Time
	dbs         map[string]*database.DB
	scheduler   JobScheduler
	jobs        map[string]scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	exportDir string,
	dbs map[string]*database.DB,
	sched JobScheduler,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		exportDir:   exportDir,
		startupTime: time.Now(),
		dbs:         dbs,
		scheduler:   sched,
		jobs:        make(map[string]scheduler.Job),
	}
}

// SetJobs registers job instances for manual triggering via API
func (h *SystemHandlers) SetJobs(jobs ...scheduler.Job) {
	for _, job := range jobs {
		if job != nil {
			h.jobs[job.Name()] = job
		}
	}
}

// RegisterRoutes registers the system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/jobs", h.HandleJobsStatus)
		r.Post("/jobs/{name}/run", h.HandleTriggerJob)
		r.Get("/database", h.HandleDatabaseStats)
		r.Get("/disk", h.HandleDiskUsage)
	})
}

// HandleSystemStatus returns process and database health
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:     "healthy",
		StartedAt:  h.startupTime.Format(time.RFC3339),
		Uptime:     time.Since(h.startupTime).Round(time.Second).String(),
		CPUPercent: cpuPercent,
		RAMPercent: ramPercent,
		Databases:  make(map[string]string, len(h.dbs)),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, db := range h.dbs {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Database unavailable")
			response.Databases[name] = err.Error()
			response.Status = "degraded"
			continue
		}
		response.Databases[name] = "ok"
	}

	h.writeJSON(w, response)
}

// HandleJobsStatus returns scheduler job status
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting jobs status")

	var jobs []scheduler.JobInfo
	if h.scheduler != nil {
		jobs = h.scheduler.Jobs()
	}
	if jobs == nil {
		jobs = []scheduler.JobInfo{}
	}

	h.writeJSON(w, JobsStatusResponse{
		TotalJobs: len(jobs),
		Jobs:      jobs,
	})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok || h.scheduler == nil {
		http.Error(w, "Job not registered: "+name, http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")
	if err := h.scheduler.RunNow(job); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]string{"status": "success", "message": name + " completed"})
}

// HandleDatabaseStats returns database file sizes
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	names := make([]string, 0, len(h.dbs))
	for name := range h.dbs {
		names = append(names, name)
	}
	sort.Strings(names)

	response := DatabaseStatsResponse{
		Databases:   []DBInfo{},
		LastChecked: time.Now().Format(time.RFC3339),
	}
	for _, name := range names {
		db := h.dbs[name]
		if db == nil {
			continue
		}
		info, err := os.Stat(db.Path())
		if err != nil {
			continue
		}
		sizeMB := float64(info.Size()) / 1024 / 1024
		response.TotalSizeMB += sizeMB
		response.Databases = append(response.Databases, DBInfo{
			Name:   name,
			Path:   db.Path(),
			SizeMB: sizeMB,
		})
	}

	h.writeJSON(w, response)
}

// HandleDiskUsage returns disk usage statistics
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting disk usage")

	dataDirSize := h.getDirSize(h.dataDir)
	exportsSize := 0.0
	if h.exportDir != "" {
		exportsSize = h.getDirSize(h.exportDir)
	}

	h.writeJSON(w, DiskUsageResponse{
		DataDirMB: dataDirSize,
		ExportsMB: exportsSize,
		TotalMB:   dataDirSize + exportsSize,
	})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
