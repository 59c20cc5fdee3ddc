package valuation

import (
	"math"
	"testing"
)

func TestNPVZeroRate(t *testing.T) {
	tests := []struct {
		flow  float64
		years int
		cost  float64
	}{
		{flow: 90_000, years: 5, cost: 400_000},
		{flow: 0, years: 3, cost: 10},
		{flow: 1_000, years: 0, cost: 0},
		{flow: 250_000, years: 12, cost: 1_000_000},
	}
	for _, tc := range tests {
		got := NPV(tc.flow, 0, tc.years, tc.cost)
		want := tc.flow*float64(tc.years) - tc.cost
		if got != want {
			t.Fatalf("flow=%v years=%d cost=%v got=%v want=%v", tc.flow, tc.years, tc.cost, got, want)
		}
	}
}

func TestNPVDiscounted(t *testing.T) {
	got := NPV(120_000, 0.10, 7, 435_895)
	if math.Abs(got-148_315.26) > 0.01 {
		t.Fatalf("got %.2f want 148315.26", got)
	}
	if got := NPV(200_000, 0.10, 10, 1_200_000); math.Abs(got-28_913.42) > 0.01 {
		t.Fatalf("got %.2f want 28913.42", got)
	}
}

func TestNPVNegativeProject(t *testing.T) {
	got := NPV(50_000, 0.13, 4, 200_000)
	if got >= 0 {
		t.Fatalf("expected negative npv, got %.2f", got)
	}
}

func TestNPVIsRepeatable(t *testing.T) {
	first := NPV(100_000, 0.12, 7, 500_000)
	for i := 0; i < 10; i++ {
		if got := NPV(100_000, 0.12, 7, 500_000); got != first {
			t.Fatalf("run %d got %v want %v", i, got, first)
		}
	}
}

func TestPresentValue(t *testing.T) {
	if got := PresentValue(100, 0, 3); got != 300 {
		t.Fatalf("got %v want 300", got)
	}
	pv := PresentValue(110, 0.10, 1)
	if math.Abs(pv-100) > 1e-9 {
		t.Fatalf("got %v want 100", pv)
	}
}
