package models

import "time"

// Decision is the full outcome of processing one telemetry record. Created
// once per record, never mutated afterwards.
type Decision struct {
	Record     *TelemetryRecord
	Raw        bool
	Final      bool
	Suppressed bool
	Reason     string
	Score      float64
	Outcome    string // "tp", "tn", "fp", "fn"
	Counts     ConfusionCounts
}

// ConfusionCounts is a read-only snapshot of the cumulative scoring counters.
type ConfusionCounts struct {
	TP int `json:"tp"`
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// Total is the number of records scored so far.
func (c ConfusionCounts) Total() int {
	return c.TP + c.TN + c.FP + c.FN
}

// DetectionRow is one row of the detection log, column for column the shape
// the recorder backends persist.
type DetectionRow struct {
	Time time.Time `json:"time"`

	Temp    *float64 `json:"temp"`
	TempSP  *float64 `json:"temp_sp"`
	TempErr *float64 `json:"temp_err"`
	PH      *float64 `json:"ph"`
	PHSP    *float64 `json:"ph_sp"`
	PHErr   *float64 `json:"ph_err"`
	RPM     *float64 `json:"rpm"`
	RPMSP   *float64 `json:"rpm_sp"`
	RPMErr  *float64 `json:"rpm_err"`

	HeaterPWM *float64 `json:"heater_pwm"`
	MotorPWM  *float64 `json:"motor_pwm"`
	AcidPWM   *float64 `json:"acid_pwm"`
	BasePWM   *float64 `json:"base_pwm"`

	Faults []string `json:"faults_active"` // persisted ";"-joined
	Final  bool     `json:"anomaly_flag"`
	Raw    bool     `json:"raw_anomaly"`
	Reason string   `json:"reason"`
	Score  float64  `json:"score"`
	TP     int      `json:"tp"`
	TN     int      `json:"tn"`
	FP     int      `json:"fp"`
	FN     int      `json:"fn"`
}

// NewDetectionRow flattens a decision into its log row.
func NewDetectionRow(now time.Time, d *Decision) *DetectionRow {
	r := d.Record
	return &DetectionRow{
		Time:      now,
		Temp:      r.Temp,
		TempSP:    r.TempSP,
		TempErr:   r.TempErr,
		PH:        r.PH,
		PHSP:      r.PHSP,
		PHErr:     r.PHErr,
		RPM:       r.RPM,
		RPMSP:     r.RPMSP,
		RPMErr:    r.RPMErr,
		HeaterPWM: r.HeaterPWM,
		MotorPWM:  r.MotorPWM,
		AcidPWM:   r.AcidPWM,
		BasePWM:   r.BasePWM,
		Faults:    r.Faults,
		Final:     d.Final,
		Raw:       d.Raw,
		Reason:    d.Reason,
		Score:     d.Score,
		TP:        d.Counts.TP,
		TN:        d.Counts.TN,
		FP:        d.Counts.FP,
		FN:        d.Counts.FN,
	}
}

// DetectorStatus is the live snapshot served by the API and pushed to the
// status cache after every processed record.
type DetectorStatus struct {
	Stream     string          `json:"stream"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Final      bool            `json:"anomaly"`
	Raw        bool            `json:"raw_anomaly"`
	Suppressed bool            `json:"suppressed"`
	Reason     string          `json:"reason"`
	Score      float64         `json:"score"`
	Faults     []string        `json:"faults_active"`
	Counts     ConfusionCounts `json:"confusion"`
	Processed  int             `json:"processed"`
}
