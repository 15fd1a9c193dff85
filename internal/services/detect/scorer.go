package detect

import "BioWatch/internal/domain/models"

// Scoring outcomes, comparing the final decision to the ground-truth labels.
const (
	OutcomeTP = "tp"
	OutcomeTN = "tn"
	OutcomeFP = "fp"
	OutcomeFN = "fn"
)

// Scorer keeps the cumulative confusion matrix for a detector run. Counters
// only grow; exactly one is incremented per scored record.
type Scorer struct {
	tp, tn, fp, fn int
}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Observe scores one final decision against the ground truth and returns the
// outcome label.
func (s *Scorer) Observe(anomaly, faultActive bool) string {
	switch {
	case anomaly && faultActive:
		s.tp++
		return OutcomeTP
	case !anomaly && !faultActive:
		s.tn++
		return OutcomeTN
	case anomaly && !faultActive:
		s.fp++
		return OutcomeFP
	default:
		s.fn++
		return OutcomeFN
	}
}

// Snapshot returns a read-only copy of the counters.
func (s *Scorer) Snapshot() models.ConfusionCounts {
	return models.ConfusionCounts{TP: s.tp, TN: s.tn, FP: s.fp, FN: s.fn}
}
