package models

import "time"

// Channel names used across the grace tracker, classifier, and baseline profile.
const (
	ChannelTemperature = "temperature_C"
	ChannelPH          = "pH"
	ChannelRPM         = "rpm"
)

// TelemetryRecord is one decoded telemetry summary. Every measurement is
// optional: a nil pointer means the field was absent from the payload, and
// absence propagates through all derived values.
type TelemetryRecord struct {
	Timestamp time.Time

	Temp    *float64
	TempSP  *float64
	TempErr *float64 // Temp - TempSP, nil unless both present

	PH    *float64
	PHSP  *float64
	PHErr *float64

	RPM    *float64
	RPMSP  *float64
	RPMErr *float64

	HeaterPWM *float64
	MotorPWM  *float64
	AcidPWM   *float64
	BasePWM   *float64

	// Active fault labels from the simulator, empty when fault-free.
	Faults []string
}

// FaultActive reports whether the simulator declared any fault for this record.
func (r *TelemetryRecord) FaultActive() bool {
	return len(r.Faults) > 0
}

// BaselineComplete reports whether the record qualifies for baseline
// collection: temperature measurement and setpoint must both be present.
func (r *TelemetryRecord) BaselineComplete() bool {
	return r.Temp != nil && r.TempSP != nil
}
