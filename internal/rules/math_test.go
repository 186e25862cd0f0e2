package rules

import (
	"math"
	"testing"
)

func TestNormalizedEntropy_UniformDistributionIsOne(t *testing.T) {
	percentages := []float64{25, 25, 25, 25}
	got := NormalizedEntropy(percentages)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected normalized entropy 1.0 for uniform distribution, got %f", got)
	}
}

func TestNormalizedEntropy_SingleHolderIsZero(t *testing.T) {
	got := NormalizedEntropy([]float64{100})
	if got != 0 {
		t.Errorf("expected 0 for single-holder distribution, got %f", got)
	}
}

func TestGini_PerfectEqualityIsZero(t *testing.T) {
	got := Gini([]float64{10, 10, 10, 10})
	if math.Abs(got) > 1e-9 {
		t.Errorf("expected gini 0 for perfect equality, got %f", got)
	}
}

func TestGini_OneHolderApproachesOne(t *testing.T) {
	got := Gini([]float64{100, 0, 0, 0})
	if got < 0.7 {
		t.Errorf("expected gini to approach 1 when one holder owns all, got %f", got)
	}
}

func TestPiecewiseLinearRisk_HealthyIsZero(t *testing.T) {
	if got := piecewiseLinearRisk(0.15, 0.10, 0.03, 0.01); got != 0 {
		t.Errorf("expected 0 risk above healthy breakpoint, got %f", got)
	}
}

func TestPiecewiseLinearRisk_DangerousIsMax(t *testing.T) {
	if got := piecewiseLinearRisk(0.001, 0.10, 0.03, 0.01); got != 100 {
		t.Errorf("expected 100 risk below dangerous breakpoint, got %f", got)
	}
}
