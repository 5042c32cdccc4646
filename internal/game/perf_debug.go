package game

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

const (
	perfLowFpsThreshold = 50.0
	perfLowFpsDuration  = 3 * time.Second
	perfLogInterval     = 3 * time.Second
)

type perfState struct {
	lowFpsSince time.Time
	lastLog     time.Time
}

// maybeLogPerfDrop logs resolver statistics when the frame rate stays low.
func (e *Editor) maybeLogPerfDrop() {
	e.checkPerf(ebiten.ActualFPS(), time.Now())
}

func (e *Editor) checkPerf(fps float64, now time.Time) bool {
	if fps >= perfLowFpsThreshold {
		e.perf = perfState{}
		return false
	}
	if e.perf.lowFpsSince.IsZero() {
		e.perf.lowFpsSince = now
		return false
	}
	if now.Sub(e.perf.lowFpsSince) < perfLowFpsDuration {
		return false
	}
	if !e.perf.lastLog.IsZero() && now.Sub(e.perf.lastLog) < perfLogInterval {
		return false
	}
	e.perf.lastLog = now

	monitor := e.resolver.Monitor()
	var alerts []string
	for _, a := range monitor.CheckAlerts() {
		alerts = append(alerts, a.Type)
	}
	e.log.Warn("low frame rate",
		zap.Float64("fps", fps),
		zap.Any("stats", monitor.GetDetailedStats()),
		zap.Strings("alerts", alerts))
	return true
}
