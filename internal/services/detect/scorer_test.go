package detect

import "testing"

func TestScorerOutcomes(t *testing.T) {
	cases := []struct {
		anomaly, fault bool
		want           string
	}{
		{true, true, OutcomeTP},
		{false, false, OutcomeTN},
		{true, false, OutcomeFP},
		{false, true, OutcomeFN},
	}
	for _, c := range cases {
		s := NewScorer()
		if got := s.Observe(c.anomaly, c.fault); got != c.want {
			t.Fatalf("anomaly=%v fault=%v: got %s want %s", c.anomaly, c.fault, got, c.want)
		}
	}
}

func TestScorerTotalMatchesObservations(t *testing.T) {
	s := NewScorer()
	seq := []struct{ anomaly, fault bool }{
		{true, true}, {false, false}, {true, false}, {false, true},
		{false, false}, {true, true}, {false, false},
	}
	for i, o := range seq {
		s.Observe(o.anomaly, o.fault)
		if got := s.Snapshot().Total(); got != i+1 {
			t.Fatalf("after %d observations total=%d", i+1, got)
		}
	}

	snap := s.Snapshot()
	if snap.TP != 2 || snap.TN != 3 || snap.FP != 1 || snap.FN != 1 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
}

func TestScorerSnapshotIsACopy(t *testing.T) {
	s := NewScorer()
	s.Observe(true, true)

	snap := s.Snapshot()
	snap.TP = 99
	if s.Snapshot().TP != 1 {
		t.Fatalf("snapshot mutation leaked into scorer")
	}
}
