package gp

import "math"

// Kernel is the covariance function of the regression model: an amplitude-
// scaled RBF term capturing the smooth trend plus an independent white-noise
// term. All three hyperparameters are learned within fixed bounds.
//
//	k(a, b) = Amplitude * exp(-|a-b|^2 / (2 * LengthScale^2)) + Noise * [a == b]
type Kernel struct {
	Amplitude   float64 `json:"amplitude"`    // constant (variance) factor
	LengthScale float64 `json:"length_scale"` // RBF length scale
	Noise       float64 `json:"noise_level"`  // white noise variance
}

// Hyperparameter search bounds. These are part of the reproducibility
// contract: changing them changes every fitted model.
var (
	amplitudeBounds   = [2]float64{1e-3, 1e3}
	lengthScaleBounds = [2]float64{1e-1, 1e2}
	noiseBounds       = [2]float64{1e-6, 1e1}
)

// defaultKernel is the optimizer's first start point.
func defaultKernel() Kernel {
	return Kernel{Amplitude: 1.0, LengthScale: 1.0, Noise: 0.1}
}

// rbf evaluates the smooth term between two feature vectors.
func (k Kernel) rbf(a, b []float64) float64 {
	var d2 float64
	for i := range a {
		d := a[i] - b[i]
		d2 += d * d
	}
	return k.Amplitude * math.Exp(-d2/(2*k.LengthScale*k.LengthScale))
}

// logParams packs the kernel into optimizer coordinates (natural log).
func (k Kernel) logParams() []float64 {
	return []float64{math.Log(k.Amplitude), math.Log(k.LengthScale), math.Log(k.Noise)}
}

// kernelFromLogParams unpacks optimizer coordinates, clamping into bounds,
// and reports the squared log-space excess for use as a boundary penalty.
func kernelFromLogParams(p []float64) (Kernel, float64) {
	amp, penA := clampLog(p[0], amplitudeBounds)
	ls, penL := clampLog(p[1], lengthScaleBounds)
	noise, penN := clampLog(p[2], noiseBounds)
	return Kernel{Amplitude: amp, LengthScale: ls, Noise: noise}, penA + penL + penN
}

func clampLog(logV float64, bounds [2]float64) (v, penalty float64) {
	lo, hi := math.Log(bounds[0]), math.Log(bounds[1])
	switch {
	case logV < lo:
		d := lo - logV
		return bounds[0], d * d
	case logV > hi:
		d := logV - hi
		return bounds[1], d * d
	default:
		return math.Exp(logV), 0
	}
}
