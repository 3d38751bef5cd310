package ta

import "math"

// SMA is the mean of the last n values.
func SMA(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		sum += vals[i]
	}
	return sum / float64(n)
}

// StdDev is the population standard deviation of the last n values.
func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// SMASeries returns the rolling n-period mean; the first n-1 entries are NaN.
func SMASeries(x []float64, n int) []float64 {
	res := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		sum += v
		if i >= n {
			sum -= x[i-n]
		}
		if n <= 0 || i < n-1 {
			res[i] = math.NaN()
			continue
		}
		res[i] = sum / float64(n)
	}
	return res
}

// EMASeries returns the n-period exponential mean seeded with the SMA of the
// first n values; entries before the seed are NaN.
func EMASeries(x []float64, n int) []float64 {
	res := make([]float64, len(x))
	if n <= 0 {
		for i := range res {
			res[i] = math.NaN()
		}
		return res
	}
	k := 2.0 / (float64(n) + 1)
	sum := 0.0
	for i, v := range x {
		switch {
		case i < n-1:
			sum += v
			res[i] = math.NaN()
		case i == n-1:
			res[i] = (sum + v) / float64(n)
		default:
			res[i] = v*k + res[i-1]*(1-k)
		}
	}
	return res
}

// CrossUp reports a moving above b at index i.
func CrossUp(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if anyNaN(a[i-1], b[i-1], a[i], b[i]) {
		return false
	}
	return a[i-1] <= b[i-1] && a[i] > b[i]
}

// CrossDown reports a moving below b at index i.
func CrossDown(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if anyNaN(a[i-1], b[i-1], a[i], b[i]) {
		return false
	}
	return a[i-1] >= b[i-1] && a[i] < b[i]
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
