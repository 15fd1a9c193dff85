package detect

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"BioWatch/internal/domain/models"
)

// DefaultFaultsKey is the field inside "faults" that holds the active labels.
const DefaultFaultsKey = "last_active"

// Extractor normalizes raw telemetry summary bodies into typed records.
// Absence of any field at any nesting level yields a nil value, never an
// error; only an undecodable body fails.
type Extractor struct {
	FaultsKey string
}

func NewExtractor(faultsKey string) *Extractor {
	if faultsKey == "" {
		faultsKey = DefaultFaultsKey
	}
	return &Extractor{FaultsKey: faultsKey}
}

type meanField struct {
	Mean *float64 `json:"mean"`
}

type summaryPayload struct {
	Temperature *meanField `json:"temperature_C"`
	PH          *meanField `json:"pH"`
	RPM         *meanField `json:"rpm"`
	Setpoints   *struct {
		Temperature *float64 `json:"temperature_C"`
		PH          *float64 `json:"pH"`
		RPM         *float64 `json:"rpm"`
	} `json:"setpoints"`
	Actuators *struct {
		Heater *float64 `json:"heater_pwm"`
		Motor  *float64 `json:"motor_pwm"`
		Acid   *float64 `json:"acid_pwm"`
		Base   *float64 `json:"base_pwm"`
	} `json:"actuators_avg"`
	Faults map[string]json.RawMessage `json:"faults"`
}

// Extract decodes a message body into a TelemetryRecord stamped with now.
func (e *Extractor) Extract(body []byte, now time.Time) (*models.TelemetryRecord, error) {
	var p summaryPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode telemetry summary: %w", err)
	}

	rec := &models.TelemetryRecord{Timestamp: now}

	if p.Temperature != nil {
		rec.Temp = p.Temperature.Mean
	}
	if p.PH != nil {
		rec.PH = p.PH.Mean
	}
	if p.RPM != nil {
		rec.RPM = p.RPM.Mean
	}
	if p.Setpoints != nil {
		rec.TempSP = p.Setpoints.Temperature
		rec.PHSP = p.Setpoints.PH
		rec.RPMSP = p.Setpoints.RPM
	}
	if p.Actuators != nil {
		rec.HeaterPWM = p.Actuators.Heater
		rec.MotorPWM = p.Actuators.Motor
		rec.AcidPWM = p.Actuators.Acid
		rec.BasePWM = p.Actuators.Base
	}

	rec.TempErr = sub(rec.Temp, rec.TempSP)
	rec.PHErr = sub(rec.PH, rec.PHSP)
	rec.RPMErr = sub(rec.RPM, rec.RPMSP)

	if raw, ok := p.Faults[e.FaultsKey]; ok {
		rec.Faults = normalizeFaults(raw)
	}

	return rec, nil
}

// RawFaults returns the undecoded faults block for diagnostic logging.
func (e *Extractor) RawFaults(body []byte) map[string]json.RawMessage {
	var p struct {
		Faults map[string]json.RawMessage `json:"faults"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil
	}
	return p.Faults
}

func sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := *a - *b
	return &d
}

// normalizeFaults accepts absent, a single string, a mapping, or a list and
// returns a flat label slice.
func normalizeFaults(raw json.RawMessage) []string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, stringify(item))
		}
		return out
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(t))
		for _, k := range keys {
			out = append(out, stringify(t[k]))
		}
		return out
	default:
		return []string{stringify(t)}
	}
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
