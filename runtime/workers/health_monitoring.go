package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HealthMonitoringWorker periodically reports the server process's CPU
// and memory usage. Observability only; it takes no action.
type HealthMonitoringWorker struct {
	log      *slog.Logger
	interval time.Duration
	pid      int32
}

func NewHealthMonitoringWorker(log *slog.Logger, interval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:      log,
		interval: interval,
		pid:      int32(os.Getpid()),
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(w.pid)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			ram, err := proc.MemoryPercent()
			if err != nil {
				w.log.Error("Error while finding process ram usage", "err", err)
				continue
			}
			w.log.Info("health", "pid", w.pid, "cpu_percent", cpu, "ram_percent", ram)
		}
	}
}
