package observability

import (
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// RegistryGauges is the subset of the connection registry the stats
// endpoint reports on.
type RegistryGauges interface {
	ConnectedUsers() int
	OpenConnections() int
}

// Stats aggregates realtime and process metrics for the ops endpoint.
type Stats struct {
	ConnectedUsers  int     `json:"connected_users"`
	OpenConnections int     `json:"open_connections"`
	UptimeSeconds   float64 `json:"uptime_seconds"`

	Pid        int     `json:"pid"`
	PidStatus  string  `json:"pid_status"`
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`

	AllocMemMB uint64 `json:"alloc_mem_mb"`
	NumGC      uint32 `json:"num_gc"`
	Goroutines int    `json:"goroutines"`
}

type StatsProvider struct {
	log       *slog.Logger
	registry  RegistryGauges
	proc      *process.Process
	startedAt time.Time
}

func NewStatsProvider(log *slog.Logger, registry RegistryGauges) *StatsProvider {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// Extremely unlikely for our own pid; stats degrade to Go
		// runtime metrics only.
		log.Warn("Process handle unavailable", "err", err)
	}
	return &StatsProvider{
		log:       log,
		registry:  registry,
		proc:      p,
		startedAt: time.Now(),
	}
}

// Snapshot collects current gauges. OS-level metrics are best-effort: a
// gopsutil failure is logged and leaves those fields zero instead of
// failing the whole snapshot.
func (s *StatsProvider) Snapshot() Stats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := Stats{
		ConnectedUsers:  s.registry.ConnectedUsers(),
		OpenConnections: s.registry.OpenConnections(),
		UptimeSeconds:   time.Since(s.startedAt).Seconds(),
		Pid:             os.Getpid(),
		AllocMemMB:      memStats.Alloc / 1024 / 1024,
		NumGC:           memStats.NumGC,
		Goroutines:      runtime.NumGoroutine(),
	}

	if s.proc == nil {
		return stats
	}
	if memInfo, err := s.proc.MemoryInfo(); err == nil {
		stats.RSSBytes = memInfo.RSS
	} else {
		s.log.Debug("Collecting memory info failed", "err", err)
	}
	if cpu, err := s.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	} else {
		s.log.Debug("Collecting cpu percent failed", "err", err)
	}
	if status, err := s.proc.Status(); err == nil {
		stats.PidStatus = status
	}
	return stats
}
