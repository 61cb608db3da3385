// Package gp implements Gaussian-Process regression with an RBF-plus-noise
// covariance function. Fitting maximizes the log marginal likelihood of an
// internally normalized target over bounded hyperparameters, restarting the
// optimizer from seeded random points for reproducibility; prediction
// returns a mean and standard deviation per query point.
package gp

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Config controls the fit.
type Config struct {
	// Jitter is added to the covariance diagonal for numerical stability.
	Jitter float64
	// Restarts is the number of random optimizer restarts beyond the
	// default start point.
	Restarts int
	// Seed feeds the restart sampler. Fits with equal inputs and equal
	// seeds produce identical models; randomness is never drawn from
	// global state.
	Seed int64
}

// DefaultConfig mirrors the production fit: jitter 1e-6, 5 restarts, seed 42.
func DefaultConfig() Config {
	return Config{Jitter: 1e-6, Restarts: 5, Seed: 42}
}

// GP is a fitted Gaussian-Process regression model. Immutable after Fit.
type GP struct {
	kernel Kernel
	jitter float64

	x     [][]float64   // training features (standardized by the caller)
	chol  *mat.Cholesky // factorization of K(x, x)
	coef  *mat.VecDense // K^-1 * y_normalized
	yMean float64
	yStd  float64
	lml   float64 // log marginal likelihood at the fitted kernel
}

// Fit trains a GP on the feature matrix x and targets y.
// The target is normalized internally; hyperparameters are optimized by
// Nelder-Mead over log-parameters with cfg.Restarts seeded random restarts.
func Fit(x [][]float64, y []float64, cfg Config) (*GP, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("gp: empty training set")
	}
	if len(y) != n {
		return nil, fmt.Errorf("gp: %d feature rows but %d targets", n, len(y))
	}
	if cfg.Jitter <= 0 {
		cfg.Jitter = 1e-6
	}

	yMean, yStd := normStats(y)
	yn := make([]float64, n)
	for i, v := range y {
		yn[i] = (v - yMean) / yStd
	}

	// Negative log marginal likelihood over log-hyperparameters, with a
	// quadratic penalty outside the search bounds.
	objective := func(p []float64) float64 {
		k, penalty := kernelFromLogParams(p)
		nlml, _, _, err := factorize(k, x, yn, cfg.Jitter)
		if err != nil {
			return math.Inf(1)
		}
		return nlml + 1e3*penalty
	}

	starts := make([][]float64, 0, cfg.Restarts+1)
	starts = append(starts, defaultKernel().logParams())
	rng := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Restarts; i++ {
		starts = append(starts, []float64{
			logUniform(rng, amplitudeBounds),
			logUniform(rng, lengthScaleBounds),
			logUniform(rng, noiseBounds),
		})
	}

	best := math.Inf(1)
	var bestParams []float64
	problem := optimize.Problem{Func: objective}
	for _, start := range starts {
		res, err := optimize.Minimize(problem, start, nil, &optimize.NelderMead{})
		if err != nil || res == nil {
			continue
		}
		if res.F < best && !math.IsInf(res.F, 0) && !math.IsNaN(res.F) {
			best = res.F
			bestParams = res.Location.X
		}
	}
	if bestParams == nil {
		return nil, fmt.Errorf("gp: hyperparameter optimization failed on all %d starts", len(starts))
	}

	kernel, _ := kernelFromLogParams(bestParams)
	nlml, chol, coef, err := factorize(kernel, x, yn, cfg.Jitter)
	if err != nil {
		return nil, fmt.Errorf("gp: factorizing at fitted kernel: %w", err)
	}

	return &GP{
		kernel: kernel,
		jitter: cfg.Jitter,
		x:      x,
		chol:   chol,
		coef:   coef,
		yMean:  yMean,
		yStd:   yStd,
		lml:    -nlml,
	}, nil
}

// Predict returns the predictive mean and standard deviation at each query
// row. Deterministic: equal models and queries give equal output.
func (g *GP) Predict(xq [][]float64) (mean, std []float64, err error) {
	n := len(g.x)
	mean = make([]float64, len(xq))
	std = make([]float64, len(xq))

	kstar := mat.NewVecDense(n, nil)
	var w mat.VecDense
	for qi, q := range xq {
		if len(q) != len(g.x[0]) {
			return nil, nil, fmt.Errorf("gp: query row %d has %d features, want %d", qi, len(q), len(g.x[0]))
		}
		for i, xi := range g.x {
			kstar.SetVec(i, g.kernel.rbf(q, xi))
		}

		mn := mat.Dot(kstar, g.coef)

		if err := g.chol.SolveVecTo(&w, kstar); err != nil {
			return nil, nil, fmt.Errorf("gp: predictive variance solve: %w", err)
		}
		// Prior variance at the query point includes the noise term,
		// matching the fitted covariance's own diagonal.
		variance := g.kernel.Amplitude + g.kernel.Noise - mat.Dot(kstar, &w)
		if variance < 0 {
			variance = 0
		}

		mean[qi] = g.yMean + g.yStd*mn
		std[qi] = g.yStd * math.Sqrt(variance)
	}
	return mean, std, nil
}

// Kernel returns the fitted hyperparameters.
func (g *GP) Kernel() Kernel {
	return g.kernel
}

// LogMarginalLikelihood returns the (normalized-target) log marginal
// likelihood at the fitted kernel.
func (g *GP) LogMarginalLikelihood() float64 {
	return g.lml
}

// ─── Internals ────────────────────────────────────────────────────────────────

// factorize builds K(x,x) under k, Cholesky-factorizes it, and returns the
// negative log marginal likelihood with the factorization and weight vector.
func factorize(k Kernel, x [][]float64, yn []float64, jitter float64) (float64, *mat.Cholesky, *mat.VecDense, error) {
	n := len(x)
	kmat := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := k.rbf(x[i], x[j])
			if i == j {
				v += k.Noise + jitter
			}
			kmat.SetSym(i, j, v)
		}
	}

	chol := &mat.Cholesky{}
	if ok := chol.Factorize(kmat); !ok {
		return 0, nil, nil, fmt.Errorf("covariance matrix not positive definite")
	}

	yVec := mat.NewVecDense(n, yn)
	coef := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(coef, yVec); err != nil {
		return 0, nil, nil, err
	}

	nlml := 0.5*mat.Dot(yVec, coef) +
		0.5*chol.LogDet() +
		0.5*float64(n)*math.Log(2*math.Pi)
	return nlml, chol, coef, nil
}

// normStats returns the mean and population standard deviation of y,
// substituting 1 for a zero deviation so constant targets stay finite.
func normStats(y []float64) (float64, float64) {
	var m float64
	for _, v := range y {
		m += v
	}
	m /= float64(len(y))
	var sq float64
	for _, v := range y {
		d := v - m
		sq += d * d
	}
	sd := math.Sqrt(sq / float64(len(y)))
	if sd == 0 {
		sd = 1
	}
	return m, sd
}

// logUniform samples log-uniformly within bounds.
func logUniform(rng *rand.Rand, bounds [2]float64) float64 {
	lo, hi := math.Log(bounds[0]), math.Log(bounds[1])
	return lo + rng.Float64()*(hi-lo)
}
