package drift

import (
	"math"
	"testing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		current     float64
		initial     float64
		wantPercent float64
		wantPos     bool
		wantSig     bool
	}{
		{"significant upward move", 118, 100, 18.0, true, true},
		{"small upward move", 105, 100, 5.0, true, false},
		{"downward move", 80, 100, 20.0, false, true},
		{"exactly at threshold is not significant", 115, 100, 15.0, true, false},
		{"no movement", 2.5, 2.5, 0.0, true, false},
	}
	for _, tt := range tests {
		got := Compute(tt.current, tt.initial)
		if got == nil {
			t.Fatalf("%s: got nil", tt.name)
		}
		if math.Abs(got.Percent-tt.wantPercent) > 1e-9 {
			t.Errorf("%s: percent = %.4f, want %.4f", tt.name, got.Percent, tt.wantPercent)
		}
		if got.IsPositive != tt.wantPos {
			t.Errorf("%s: is_positive = %v, want %v", tt.name, got.IsPositive, tt.wantPos)
		}
		if got.IsSignificant != tt.wantSig {
			t.Errorf("%s: is_significant = %v, want %v", tt.name, got.IsSignificant, tt.wantSig)
		}
	}
}

func TestCompute_NoBaseline(t *testing.T) {
	if got := Compute(1.85, 0); got != nil {
		t.Errorf("expected nil without baseline, got %+v", got)
	}
	if got := Compute(1.85, -1); got != nil {
		t.Errorf("expected nil for negative baseline, got %+v", got)
	}
}

func TestComputeWith_CustomThreshold(t *testing.T) {
	got := ComputeWith(110, 100, 5.0)
	if got == nil || !got.IsSignificant {
		t.Errorf("10%% move with 5%% threshold should be significant, got %+v", got)
	}
}
