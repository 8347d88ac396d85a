// business/bandit/math.go
package bandit

import (
	"math"

	"myPriceLab/domain"
)

// Abramowitz-Stegun 7.1.26, max error ~1.5e-7
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

func erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x)

	t := 1.0 / (1.0 + erfP*x)
	y := 1.0 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)

	return sign * y
}

// normalCDF is Φ(x) for the standard normal.
func normalCDF(x float64) float64 {
	return 0.5 * (1 + erf(x/math.Sqrt2))
}

// twoProportionZTest compares two observed conversion rates using the pooled
// standard error. ok is false when the standard error is zero or either
// group has no trials.
func twoProportionZTest(successesA, trialsA, successesB, trialsB int64) (z, pValue float64, ok bool) {
	if trialsA <= 0 || trialsB <= 0 {
		return 0, 1, false
	}

	nA := float64(trialsA)
	nB := float64(trialsB)
	rateA := float64(successesA) / nA
	rateB := float64(successesB) / nB

	pooled := float64(successesA+successesB) / (nA + nB)
	se := math.Sqrt(pooled * (1 - pooled) * (1/nA + 1/nB))
	if se == 0 {
		return 0, 1, false
	}

	z = math.Abs(rateA-rateB) / se
	pValue = 2 * (1 - normalCDF(z))
	return z, pValue, true
}

// posterior returns the Beta posterior parameters under a uniform prior.
func posterior(arm domain.ArmStats) (alpha, beta float64) {
	alpha = float64(arm.Successes) + 1
	beta = float64(arm.Trials-arm.Successes) + 1
	return alpha, beta
}

func betaMean(alpha, beta float64) float64 {
	return alpha / (alpha + beta)
}

func betaVariance(alpha, beta float64) float64 {
	sum := alpha + beta
	return alpha * beta / (sum * sum * (sum + 1))
}
