package analysis

import "math"

// polynomial holds coefficients lowest order first
type polynomial []float64

func (p polynomial) eval(x float64) float64 {
	y := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

// polyFit fits a least-squares polynomial of the given degree through the
// points and returns its coefficients and R². ok is false when the normal
// equations are singular.
func polyFit(xs, ys []float64, degree int) (polynomial, float64, bool) {
	if len(xs) != len(ys) || len(xs) <= degree || degree < 1 {
		return nil, 0, false
	}

	size := degree + 1
	// Augmented normal-equation matrix
	a := make([][]float64, size)
	for i := range a {
		a[i] = make([]float64, size+1)
	}
	for k, x := range xs {
		pow := make([]float64, 2*degree+1)
		pow[0] = 1
		for j := 1; j < len(pow); j++ {
			pow[j] = pow[j-1] * x
		}
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				a[i][j] += pow[i+j]
			}
			a[i][size] += pow[i] * ys[k]
		}
	}

	coef, ok := solveGauss(a)
	if !ok {
		return nil, 0, false
	}
	p := polynomial(coef)
	return p, rSquared(p, xs, ys), true
}

// solveGauss solves an augmented n×(n+1) system with partial pivoting
func solveGauss(a [][]float64) ([]float64, bool) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := a[r][n]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}

func rSquared(p polynomial, xs, ys []float64) float64 {
	avg := mean(ys)
	var ssRes, ssTot float64
	for i, x := range xs {
		d := ys[i] - p.eval(x)
		ssRes += d * d
		t := ys[i] - avg
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
