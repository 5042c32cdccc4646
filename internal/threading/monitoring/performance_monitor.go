package monitoring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// PerformanceMonitor tracks resolution pass metrics
type PerformanceMonitor struct {
	// Pass metrics
	passCount atomic.Uint64
	passTime  atomic.Uint64 // nanoseconds, last pass
	totalTime atomic.Uint64 // nanoseconds, all passes

	// Cell metrics
	cellsResolved atomic.Uint64
	substitutions atomic.Uint64
	faults        atomic.Uint64

	// Statistics
	mutex       sync.RWMutex
	avgPassTime float64
	startTime   time.Time

	// Configuration
	slowPassThreshold time.Duration
}

// NewPerformanceMonitor creates a new performance monitor
func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{
		startTime:         time.Now(),
		slowPassThreshold: 50 * time.Millisecond,
	}
}

// PassTimer measures a single resolution pass
type PassTimer struct {
	monitor   *PerformanceMonitor
	startTime time.Time
}

// StartPass begins pass timing
func (pm *PerformanceMonitor) StartPass() *PassTimer {
	return &PassTimer{
		monitor:   pm,
		startTime: time.Now(),
	}
}

// EndPass completes pass timing and records how many cells the pass produced
func (pt *PassTimer) EndPass(cells int) {
	elapsed := uint64(time.Since(pt.startTime).Nanoseconds())
	pm := pt.monitor
	pm.passTime.Store(elapsed)
	total := pm.totalTime.Add(elapsed)
	count := pm.passCount.Add(1)
	pm.cellsResolved.Add(uint64(cells))

	pm.mutex.Lock()
	pm.avgPassTime = float64(total) / float64(count)
	pm.mutex.Unlock()
}

// RecordSubstitution counts a cell that fell back to a substitute tile
func (pm *PerformanceMonitor) RecordSubstitution() {
	pm.substitutions.Add(1)
}

// RecordFault counts a resolution fault (substituted or not)
func (pm *PerformanceMonitor) RecordFault() {
	pm.faults.Add(1)
}

// SetSlowPassThreshold changes the duration above which CheckAlerts reports a slow pass.
func (pm *PerformanceMonitor) SetSlowPassThreshold(d time.Duration) {
	pm.mutex.Lock()
	pm.slowPassThreshold = d
	pm.mutex.Unlock()
}

// Metrics is a point-in-time copy of the counters
type Metrics struct {
	Passes        uint64
	CellsResolved uint64
	Substitutions uint64
	Faults        uint64
	LastPass      time.Duration
	AveragePass   time.Duration
}

// GetCurrentMetrics returns current metrics
func (pm *PerformanceMonitor) GetCurrentMetrics() Metrics {
	pm.mutex.RLock()
	avg := pm.avgPassTime
	pm.mutex.RUnlock()

	return Metrics{
		Passes:        pm.passCount.Load(),
		CellsResolved: pm.cellsResolved.Load(),
		Substitutions: pm.substitutions.Load(),
		Faults:        pm.faults.Load(),
		LastPass:      time.Duration(pm.passTime.Load()),
		AveragePass:   time.Duration(avg),
	}
}

// GetDetailedStats returns detailed statistics keyed for logging
func (pm *PerformanceMonitor) GetDetailedStats() map[string]interface{} {
	pm.mutex.RLock()
	avg := pm.avgPassTime
	pm.mutex.RUnlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	cellsPerSecond := 0.0
	if total := pm.totalTime.Load(); total > 0 {
		cellsPerSecond = float64(pm.cellsResolved.Load()) / (float64(total) / 1e9)
	}

	return map[string]interface{}{
		"uptime_seconds":   time.Since(pm.startTime).Seconds(),
		"passes":           pm.passCount.Load(),
		"cells_resolved":   pm.cellsResolved.Load(),
		"cells_per_second": cellsPerSecond,
		"substitutions":    pm.substitutions.Load(),
		"faults":           pm.faults.Load(),
		"last_pass_ms":     float64(pm.passTime.Load()) / 1e6,
		"avg_pass_ms":      avg / 1e6,
		"memory_alloc_mb":  memStats.Alloc / 1024 / 1024,
		"goroutines":       runtime.NumGoroutine(),
	}
}

// Alert represents a warning derived from the counters
type Alert struct {
	Type      string
	Message   string
	Value     float64
	Threshold float64
	Timestamp time.Time
}

// CheckAlerts reports slow passes and any recorded faults
func (pm *PerformanceMonitor) CheckAlerts() []Alert {
	alerts := make([]Alert, 0)
	now := time.Now()

	pm.mutex.RLock()
	threshold := pm.slowPassThreshold
	pm.mutex.RUnlock()

	if last := time.Duration(pm.passTime.Load()); threshold > 0 && last > threshold {
		alerts = append(alerts, Alert{
			Type:      "slow_pass",
			Message:   "Last resolution pass exceeded the slow pass threshold",
			Value:     float64(last.Milliseconds()),
			Threshold: float64(threshold.Milliseconds()),
			Timestamp: now,
		})
	}

	// Faults only happen when the loaded tables are inconsistent with the grid
	if faults := pm.faults.Load(); faults > 0 {
		alerts = append(alerts, Alert{
			Type:      "resolution_faults",
			Message:   "Cells failed to resolve against the loaded tables",
			Value:     float64(faults),
			Threshold: 0,
			Timestamp: now,
		})
	}

	return alerts
}

// Reset resets all counters
func (pm *PerformanceMonitor) Reset() {
	pm.passCount.Store(0)
	pm.passTime.Store(0)
	pm.totalTime.Store(0)
	pm.cellsResolved.Store(0)
	pm.substitutions.Store(0)
	pm.faults.Store(0)

	pm.mutex.Lock()
	pm.avgPassTime = 0
	pm.startTime = time.Now()
	pm.mutex.Unlock()
}
