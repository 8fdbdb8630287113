package strategy

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Strategy{Weighted, RRF}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", s)
		}
	}

	invalid := []Strategy{"", "hybrid", "WEIGHTED", "rank"}
	for _, s := range invalid {
		if s.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", s)
		}
	}
}

func TestConstants(t *testing.T) {
	if Weighted != "weighted" {
		t.Errorf("Weighted = %q", Weighted)
	}
	if RRF != "rrf" {
		t.Errorf("RRF = %q", RRF)
	}
}
