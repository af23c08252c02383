package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"
)

// RegistryStats is the part of the socket registry the heartbeat reports on.
type RegistryStats interface {
	Stats() (sockets, rooms int)
}

// RestartStats is the part of the supervisor the heartbeat reports on.
type RestartStats interface {
	Restarts() map[string]int
}

// NodeStatus is the latest self observation of the process, served by /healthz.
type NodeStatus struct {
	Pid        int            `json:"pid"`
	PidStatus  string         `json:"pidStatus"`
	CpuPercent float64        `json:"cpuPercent"`
	RamBytes   uint64         `json:"ramBytes"`
	Goroutines int            `json:"goroutines"`
	Sockets    int            `json:"sockets"`
	Rooms      int            `json:"rooms"`
	Restarts   map[string]int `json:"restarts,omitempty"`
	ObservedAt time.Time      `json:"observedAt"`
}

// HeartbeatWorker samples the process health (CPU, RAM, status) and the
// realtime load every interval, logs it and keeps the last sample.
type HeartbeatWorker struct {
	mu       sync.RWMutex
	log      *slog.Logger
	registry RegistryStats
	restarts RestartStats
	interval time.Duration
	latest   NodeStatus
}

// NewHeartbeatWorker accepts a nil restarts, the status then carries no restart counts.
func NewHeartbeatWorker(log *slog.Logger, registry RegistryStats, restarts RestartStats, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, registry: registry, restarts: restarts, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			status, err := w.observe(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.mu.Lock()
			w.latest = status
			w.mu.Unlock()
			w.log.Debug("Heartbeat",
				"cpu_percent", status.CpuPercent,
				"ram_bytes", status.RamBytes,
				"goroutines", status.Goroutines,
				"sockets", status.Sockets,
				"rooms", status.Rooms)
		}
	}
}

// Latest returns the zero NodeStatus until the first tick.
func (w *HeartbeatWorker) Latest() NodeStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

func (w *HeartbeatWorker) observe(p *process.Process) (NodeStatus, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return NodeStatus{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return NodeStatus{}, err
	}
	status, err := p.Status()
	if err != nil {
		return NodeStatus{}, err
	}
	sockets, rooms := w.registry.Stats()
	var restarts map[string]int
	if w.restarts != nil {
		restarts = w.restarts.Restarts()
	}
	return NodeStatus{
		Pid:        int(p.Pid),
		PidStatus:  status,
		CpuPercent: cpuPercent,
		RamBytes:   memInfo.RSS,
		Goroutines: runtime.NumGoroutine(),
		Sockets:    sockets,
		Rooms:      rooms,
		Restarts:   restarts,
		ObservedAt: time.Now().UTC(),
	}, nil
}
