package detect

import (
	"fmt"
	"math"
	"strings"

	"BioWatch/internal/domain/models"
	"BioWatch/internal/services/baseline"
)

// WithinTolerance is the reason marker for records with no violation.
const WithinTolerance = "within_tolerance"

// Tolerances are the effective per-channel detection limits.
type Tolerances struct {
	Temp float64
	PH   float64
	RPM  float64
}

// ResolveTolerances derives working tolerances from the trained profile.
// tempOverride, when non-nil, replaces the trained temperature tolerance with
// a fixed operational value (tuned against the fault-injection stream to keep
// false positives down).
func ResolveTolerances(specs baseline.Specs, tempOverride *float64) Tolerances {
	t := Tolerances{
		Temp: specs.TemperatureTolC,
		PH:   specs.PHTol,
		RPM:  specs.RPMTol,
	}
	if t.Temp <= 0 {
		t.Temp = baseline.DefaultTempFloor
	}
	if t.PH <= 0 {
		t.PH = baseline.DefaultPHFloor
	}
	if t.RPM <= 0 {
		t.RPM = baseline.DefaultRPMFloor
	}
	if tempOverride != nil {
		t.Temp = *tempOverride
	}
	return t
}

// RawResult is the instantaneous classification of one record.
type RawResult struct {
	Anomalous bool
	Reason    string
	Score     float64
}

// Classifier flags per-channel tolerance violations and computes a diagnostic
// severity score. It is stateless: the same record and profile always yield
// the same result.
type Classifier struct {
	tol   Tolerances
	zTol  float64
	stats *baseline.Profile
}

func NewClassifier(profile *baseline.Profile, tol Tolerances) *Classifier {
	zTol := profile.Specs.ZTol
	if zTol <= 0 {
		zTol = baseline.DefaultZTol
	}
	return &Classifier{tol: tol, zTol: zTol, stats: profile}
}

// Tolerances returns the effective limits the classifier applies.
func (c *Classifier) Tolerances() Tolerances {
	return c.tol
}

// Evaluate flags the record when any present error exceeds its tolerance.
// The severity score is the max absolute z-score across the error channels;
// it is logged for analysis and never gates the anomaly flag.
func (c *Classifier) Evaluate(rec *models.TelemetryRecord) RawResult {
	var reasons []string

	if rec.TempErr != nil && math.Abs(*rec.TempErr) > c.tol.Temp {
		reasons = append(reasons, fmt.Sprintf("temp_err %+.2f > tol %.2f", *rec.TempErr, c.tol.Temp))
	}
	if rec.PHErr != nil && math.Abs(*rec.PHErr) > c.tol.PH {
		reasons = append(reasons, fmt.Sprintf("ph_err %+.2f > tol %.2f", *rec.PHErr, c.tol.PH))
	}
	if rec.RPMErr != nil && math.Abs(*rec.RPMErr) > c.tol.RPM {
		reasons = append(reasons, fmt.Sprintf("rpm_err %+.1f > tol %.1f", *rec.RPMErr, c.tol.RPM))
	}

	score := math.Max(
		math.Abs(zScore(rec.TempErr, c.stats.TempError)),
		math.Max(
			math.Abs(zScore(rec.PHErr, c.stats.PHError)),
			math.Abs(zScore(rec.RPMErr, c.stats.RPMError)),
		),
	)

	anomalous := len(reasons) > 0
	if !anomalous {
		reasons = append(reasons, WithinTolerance)
	}
	reasons = append(reasons, fmt.Sprintf("(score=%.2f, Z_TOL=%.2f)", score, c.zTol))

	return RawResult{
		Anomalous: anomalous,
		Reason:    strings.Join(reasons, "; "),
		Score:     score,
	}
}

// zScore returns (value-mean)/std, or 0 when the value or the baseline stats
// are absent or the std is zero.
func zScore(value *float64, stats baseline.ChannelStats) float64 {
	if value == nil || stats.Mean == nil || stats.Std == nil || *stats.Std == 0 {
		return 0
	}
	return (*value - *stats.Mean) / *stats.Std
}
