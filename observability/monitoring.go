package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Monitor aggregates relay telemetry: connection churn, fan-out volume
// and dropped frames, plus Go runtime and OS process stats. Everything
// lands in the log on a fixed interval; there is no metrics endpoint.
type Monitor struct {
	log      *slog.Logger
	interval time.Duration

	connectionsOpened uint64
	connectionsClosed uint64
	broadcastsSent    uint64
	framesDropped     uint64
}

func NewMonitor(log *slog.Logger, interval time.Duration) *Monitor {
	return &Monitor{log: log, interval: interval}
}

func (m *Monitor) IncrConnectionsOpened() { atomic.AddUint64(&m.connectionsOpened, 1) }
func (m *Monitor) IncrConnectionsClosed() { atomic.AddUint64(&m.connectionsClosed, 1) }
func (m *Monitor) IncrBroadcastsSent()    { atomic.AddUint64(&m.broadcastsSent, 1) }
func (m *Monitor) IncrFramesDropped()     { atomic.AddUint64(&m.framesDropped, 1) }

// Run logs a stats line every interval until the context is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.log.Warn("Process stats unavailable", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			m.log.Debug("Context done, stopping monitor")
			return
		case <-ticker.C:
			m.report(proc)
		}
	}
}

func (m *Monitor) report(proc *process.Process) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	attrs := []any{
		"connections_opened", atomic.LoadUint64(&m.connectionsOpened),
		"connections_closed", atomic.LoadUint64(&m.connectionsClosed),
		"broadcasts_sent", atomic.LoadUint64(&m.broadcastsSent),
		"frames_dropped", atomic.LoadUint64(&m.framesDropped),
		"goroutines", runtime.NumGoroutine(),
		"alloc_mb", stats.Alloc/1024/1024,
		"num_gc", stats.NumGC,
	}

	if proc != nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			attrs = append(attrs, "cpu_percent", cpu)
		}
		if ram, err := proc.MemoryPercent(); err == nil {
			attrs = append(attrs, "ram_percent", ram)
		}
	}

	m.log.Info("Relay stats", attrs...)
}
