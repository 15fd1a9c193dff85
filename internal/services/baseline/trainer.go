package baseline

import (
	"math"

	"BioWatch/internal/domain/models"
)

// Options configures tolerance derivation.
type Options struct {
	ZTol      float64
	TempFloor float64
	PHFloor   float64
	RPMFloor  float64
}

// DefaultOptions returns the reactor spec-sheet defaults.
func DefaultOptions() Options {
	return Options{
		ZTol:      DefaultZTol,
		TempFloor: DefaultTempFloor,
		PHFloor:   DefaultPHFloor,
		RPMFloor:  DefaultRPMFloor,
	}
}

// Train computes per-channel mean and sample standard deviation over a
// fault-free run, then derives tolerances as max(floor, zTol*std). A channel
// with no present values yields nil stats and its tolerance falls back to the
// floor; that is expected, not an error.
func Train(records []*models.TelemetryRecord, opts Options) *Profile {
	if opts.ZTol <= 0 {
		opts.ZTol = DefaultZTol
	}
	if opts.TempFloor <= 0 {
		opts.TempFloor = DefaultTempFloor
	}
	if opts.PHFloor <= 0 {
		opts.PHFloor = DefaultPHFloor
	}
	if opts.RPMFloor <= 0 {
		opts.RPMFloor = DefaultRPMFloor
	}

	p := &Profile{
		TempError: channelStats(records, func(r *models.TelemetryRecord) *float64 { return r.TempErr }),
		PHError:   channelStats(records, func(r *models.TelemetryRecord) *float64 { return r.PHErr }),
		RPMError:  channelStats(records, func(r *models.TelemetryRecord) *float64 { return r.RPMErr }),
		HeaterPWM: channelStats(records, func(r *models.TelemetryRecord) *float64 { return r.HeaterPWM }),
		MotorPWM:  channelStats(records, func(r *models.TelemetryRecord) *float64 { return r.MotorPWM }),
		AcidPWM:   channelStats(records, func(r *models.TelemetryRecord) *float64 { return r.AcidPWM }),
		BasePWM:   channelStats(records, func(r *models.TelemetryRecord) *float64 { return r.BasePWM }),
	}

	p.Specs = Specs{
		TemperatureTolC: tolerance(p.TempError.Std, opts.ZTol, opts.TempFloor),
		PHTol:           tolerance(p.PHError.Std, opts.ZTol, opts.PHFloor),
		RPMTol:          tolerance(p.RPMError.Std, opts.ZTol, opts.RPMFloor),
		ZTol:            opts.ZTol,
	}

	return p
}

func tolerance(std *float64, zTol, floor float64) float64 {
	if std == nil {
		return floor
	}
	return math.Max(floor, zTol*(*std))
}

func channelStats(records []*models.TelemetryRecord, get func(*models.TelemetryRecord) *float64) ChannelStats {
	var values []float64
	for _, r := range records {
		if v := get(r); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) == 0 {
		return ChannelStats{}
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	stats := ChannelStats{Mean: &mean}
	if len(values) < 2 {
		return stats
	}

	// sample variance (n-1)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(values)-1))
	stats.Std = &std
	return stats
}
