package colony

import "math"

// Candidate is one possible next cell and its selection weight.
type Candidate struct {
	Cell   int
	Weight float64
}

// Weights holds the move-selection exponents.
type Weights struct {
	Alpha   float64 // trust in existing trails
	Beta    float64 // greedy bias toward End
	Epsilon float64 // floor that keeps unexplored cells selectable
}

// Weight returns (strength + Epsilon)^Alpha * Proximity(distance)^Beta.
// Non-finite results collapse to zero.
func (w Weights) Weight(strength float64, distance int) float64 {
	v := pow(strength+w.Epsilon, w.Alpha) * pow(Proximity(distance), w.Beta)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Proximity maps a distance to End into (0, 1]; it strictly decreases as the
// distance grows.
func Proximity(distance int) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + float64(distance))
}

// Pick performs a weighted draw over cands using u, a uniform sample in
// [0,1). It returns the index into cands, or -1 when cands is empty. If every
// weight is zero the draw is uniform.
func Pick(cands []Candidate, u float64) int {
	n := len(cands)
	if n == 0 {
		return -1
	}
	if u < 0 || math.IsNaN(u) {
		u = 0
	}
	if u >= 1 {
		u = math.Nextafter(1, 0)
	}

	total := 0.0
	for _, c := range cands {
		total += c.Weight
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return min(int(u*float64(n)), n-1)
	}

	target := u * total
	acc := 0.0
	for i, c := range cands {
		acc += c.Weight
		if target < acc {
			return i
		}
	}
	// Rounding can leave target == total; fall back to the last positive weight.
	for i := n - 1; i >= 0; i-- {
		if cands[i].Weight > 0 {
			return i
		}
	}
	return n - 1
}

func pow(x, y float64) float64 {
	switch y {
	case 0:
		return 1
	case 1:
		return x
	case 2:
		return x * x
	}
	return math.Pow(x, y)
}
