package bandit

import (
	"math"
	"math/rand"
	"time"
)

// linear congruential generator constants used for seeded sequences
const (
	lcgA = 1103515245
	lcgC = 12345
	lcgM = 1 << 31
)

// Random draws uniform, normal, gamma and beta variates.
// A Random is not safe for concurrent use; give each unit of work its own.
type Random struct {
	seeded bool
	state  uint64
	src    *rand.Rand
}

// NewRandom returns an unseeded generator backed by math/rand.
func NewRandom() *Random {
	return &Random{src: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRandom returns a generator whose sequence is fully determined by seed.
func NewSeededRandom(seed int64) *Random {
	s := seed % lcgM
	if s < 0 {
		s += lcgM
	}
	return &Random{seeded: true, state: uint64(s)}
}

// Uniform returns a float in [0, 1).
func (r *Random) Uniform() float64 {
	if !r.seeded {
		return r.src.Float64()
	}
	r.state = (lcgA*r.state + lcgC) % lcgM
	return float64(r.state) / lcgM
}

// Intn returns an int in [0, n). n must be positive.
func (r *Random) Intn(n int) int {
	i := int(r.Uniform() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Normal returns a standard normal variate (Box-Muller).
func (r *Random) Normal() float64 {
	u1 := r.Uniform()
	for u1 == 0 {
		u1 = r.Uniform()
	}
	u2 := r.Uniform()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Gamma samples Gamma(shape, scale) with the Marsaglia-Tsang method.
// Non-positive parameters yield 0.
func (r *Random) Gamma(shape, scale float64) float64 {
	if shape <= 0 || scale <= 0 {
		return 0
	}
	if shape < 1 {
		return r.Gamma(shape+1, scale) * math.Pow(r.Uniform(), 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = r.Normal()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := r.Uniform()

		if u < 1-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// Beta samples Beta(alpha, beta) as X/(X+Y) with X~Gamma(alpha,1), Y~Gamma(beta,1).
// Non-positive parameters yield 0.
func (r *Random) Beta(alpha, beta float64) float64 {
	if alpha <= 0 || beta <= 0 {
		return 0
	}
	x := r.Gamma(alpha, 1)
	y := r.Gamma(beta, 1)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}
