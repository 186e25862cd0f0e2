package rules

import "math"

// ShannonEntropy computes H = -Σ p_i log2(p_i) over a distribution
// already normalized to sum to 1 (spec §4.E, §8 invariant).
func ShannonEntropy(probabilities []float64) float64 {
	h := 0.0
	for _, p := range probabilities {
		if p <= 0 {
			continue
		}
		h -= p * math.Log2(p)
	}
	return h
}

// NormalizedEntropy normalizes holder percentages (0-100, need not sum
// to exactly 100) into a distribution and divides Shannon entropy by
// log2(N). A single-holder distribution is defined as 0; N<=1 is
// treated as fully concentrated.
func NormalizedEntropy(percentages []float64) float64 {
	n := len(percentages)
	if n <= 1 {
		return 0
	}

	total := 0.0
	for _, p := range percentages {
		total += p
	}
	if total <= 0 {
		return 0
	}

	probs := make([]float64, n)
	for i, p := range percentages {
		probs[i] = p / total
	}

	h := ShannonEntropy(probs)
	maxH := math.Log2(float64(n))
	if maxH == 0 {
		return 0
	}
	return h / maxH
}

// Gini computes the Gini coefficient of inequality over a set of
// percentages (spec §8: 0 for perfect equality, approaches 1 for one
// holder owning everything).
func Gini(percentages []float64) float64 {
	n := len(percentages)
	if n == 0 {
		return 0
	}

	var sum float64
	for _, p := range percentages {
		sum += p
	}

	// Gini via the mean-absolute-difference form: G = sum_i sum_j |xi-xj| / (2 n^2 mean)
	var total float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			total += math.Abs(percentages[i] - percentages[j])
		}
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}
	return total / (2 * float64(n) * float64(n) * mean)
}

// piecewiseLinearRisk maps a raw metric to a 0-100 risk score through
// explicit breakpoints (healthy, concerning, dangerous), interpolating
// linearly between them and clamping at the ends. breakpoints must be
// given in descending order of "healthiness" (e.g. 0.10 healthy, 0.03
// concerning, 0.01 dangerous for liquidity/FDV — spec §4.E rug
// probability sub-scorers).
func piecewiseLinearRisk(value, healthy, concerning, dangerous float64) float64 {
	switch {
	case value >= healthy:
		return 0
	case value >= concerning:
		frac := (healthy - value) / (healthy - concerning)
		return frac * 40
	case value >= dangerous:
		frac := (concerning - value) / (concerning - dangerous)
		return 40 + frac*40
	default:
		return 100
	}
}
