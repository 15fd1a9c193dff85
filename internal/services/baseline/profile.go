package baseline

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default tolerance floors and z-multiplier from the reactor spec sheet.
const (
	DefaultZTol      = 3.0
	DefaultTempFloor = 0.5
	DefaultPHFloor   = 0.25
	DefaultRPMFloor  = 20.0
)

// ChannelStats holds mean and sample standard deviation for one channel.
// Nil values mean the channel had no data in the training run.
type ChannelStats struct {
	Mean *float64 `json:"mean"`
	Std  *float64 `json:"std"`
}

// Specs holds the tolerances derived from the training run and the
// z-multiplier used to derive them.
type Specs struct {
	TemperatureTolC float64 `json:"temperature_tol_C"`
	RPMTol          float64 `json:"rpm_tol"`
	PHTol           float64 `json:"ph_tol"`
	ZTol            float64 `json:"z_tol"`
}

// Profile is the immutable output of one training run. The detector loads it
// at startup and never mutates it; re-training produces a new document.
type Profile struct {
	TempError ChannelStats `json:"temp_error"`
	PHError   ChannelStats `json:"ph_error"`
	RPMError  ChannelStats `json:"rpm_error"`
	HeaterPWM ChannelStats `json:"heater_pwm"`
	MotorPWM  ChannelStats `json:"motor_pwm"`
	AcidPWM   ChannelStats `json:"acid_pwm"`
	BasePWM   ChannelStats `json:"base_pwm"`
	Specs     Specs        `json:"_specs"`
}

// Save writes the profile as indented JSON.
func (p *Profile) Save(path string) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// LoadProfile reads a profile document written by Save.
func LoadProfile(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}
