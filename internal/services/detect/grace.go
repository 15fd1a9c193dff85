package detect

import (
	"time"

	"BioWatch/internal/domain/models"
)

// DefaultGracePeriod matches the controller settling time after a setpoint step.
const DefaultGracePeriod = 10 * time.Second

type setpointState struct {
	last       *float64
	lastChange *time.Time
}

// GraceTracker suppresses detection while any setpoint was changed recently,
// so the transient the controller itself causes is not flagged. State is per
// channel and re-arms on every observed change.
type GraceTracker struct {
	period   time.Duration
	channels map[string]*setpointState
}

func NewGraceTracker(period time.Duration) *GraceTracker {
	if period <= 0 {
		period = DefaultGracePeriod
	}
	return &GraceTracker{
		period: period,
		channels: map[string]*setpointState{
			models.ChannelTemperature: {},
			models.ChannelPH:          {},
			models.ChannelRPM:         {},
		},
	}
}

// Observe updates setpoint state from one record. A change is recorded only
// when a present setpoint differs from a previously stored one; the stored
// value is always refreshed.
func (g *GraceTracker) Observe(rec *models.TelemetryRecord, now time.Time) {
	g.observe(models.ChannelTemperature, rec.TempSP, now)
	g.observe(models.ChannelPH, rec.PHSP, now)
	g.observe(models.ChannelRPM, rec.RPMSP, now)
}

func (g *GraceTracker) observe(channel string, sp *float64, now time.Time) {
	if sp == nil {
		return
	}
	st := g.channels[channel]
	if st.last != nil && *sp != *st.last {
		t := now
		st.lastChange = &t
	}
	v := *sp
	st.last = &v
}

// Suppressed reports whether any channel changed within the grace period.
func (g *GraceTracker) Suppressed(now time.Time) bool {
	for _, st := range g.channels {
		if st.lastChange != nil && now.Sub(*st.lastChange) < g.period {
			return true
		}
	}
	return false
}
