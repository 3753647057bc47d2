// Package arima fits ARIMA(p,d,q) models to univariate series and projects
// future values. Estimation uses Yule-Walker starting values refined by
// conditional sum of squares, which is enough for the short, low-order
// series this application works with.
package arima

import (
	"errors"
	"math"
)

// Order is the (p, d, q) triple controlling the model structure:
// p autoregressive terms, d differencing steps, q moving-average terms.
type Order struct {
	P int
	D int
	Q int
}

// Model is a fitted or unfitted ARIMA model.
type Model struct {
	Order Order

	phi       []float64 // AR coefficients
	theta     []float64 // MA coefficients
	intercept float64

	original  []float64 // observed series
	diffed    []float64 // series after D rounds of differencing
	residuals []float64
	fitted    bool
}

// New creates an unfitted model with the given order.
func New(p, d, q int) *Model {
	return &Model{
		Order: Order{P: p, D: d, Q: q},
		phi:   make([]float64, p),
		theta: make([]float64, q),
	}
}

// ErrInsufficientData is returned by Fit when the series is shorter than the
// order requires. One regression equation must survive differencing, so at
// least p+d+1 observations are needed.
var ErrInsufficientData = errors.New("arima: insufficient observations for model order")

// Fit estimates the model parameters from the observed series.
func (m *Model) Fit(values []float64) error {
	p, d := m.Order.P, m.Order.D

	if len(values) < p+d+1 {
		return ErrInsufficientData
	}

	m.original = append([]float64(nil), values...)

	diffed := m.original
	for i := 0; i < d; i++ {
		diffed = difference(diffed)
	}
	if len(diffed) <= p {
		return ErrInsufficientData
	}
	m.diffed = diffed

	m.intercept = mean(diffed)

	if p > 0 {
		r, ok := autocorrelation(diffed, p)
		if !ok {
			return errors.New("arima: series is constant after differencing")
		}
		phi := levinsonDurbin(r, p)
		if phi == nil {
			return errors.New("arima: autoregressive estimation did not converge")
		}
		copy(m.phi, phi)
	}
	for i := range m.theta {
		m.theta[i] = 0.1
	}

	m.refineCSS()
	m.fitted = true
	return nil
}

// Forecast projects values for the given number of steps past the end of the
// observed series.
func (m *Model) Forecast(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, errors.New("arima: model is not fitted")
	}
	if steps < 1 {
		return nil, errors.New("arima: steps must be at least 1")
	}

	p, q := m.Order.P, m.Order.Q
	n := len(m.diffed)

	y := make([]float64, n+steps)
	copy(y, m.diffed)
	resid := make([]float64, n+steps)
	copy(resid, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.phi[i] * (y[t-i-1] - m.intercept)
		}
		// Future shocks have expectation zero, so only residuals from the
		// observed range contribute to the MA part.
		for i := 0; i < q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.theta[i] * resid[t-i-1]
		}
		y[t] = pred
	}

	forecast := y[n:]
	if m.Order.D > 0 {
		forecast = m.integrate(forecast)
	}
	return forecast, nil
}

// Residuals returns a copy of the in-sample residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// refineCSS improves the Yule-Walker starting values by gradient descent on
// the conditional sum of squared residuals.
func (m *Model) refineCSS() {
	y := m.diffed
	n := len(y)
	p, q := m.Order.P, m.Order.Q

	const (
		maxIter      = 100
		tolerance    = 1e-6
		learningRate = 0.01
	)

	start := p
	if q > start {
		start = q
	}

	resid := make([]float64, n)
	prevSSE := math.Inf(1)

	for iter := 0; iter < maxIter; iter++ {
		sse := 0.0
		for t := 0; t < n; t++ {
			resid[t] = y[t] - m.predictAt(y, resid, t)
			if t >= start {
				sse += resid[t] * resid[t]
			}
		}

		if math.Abs(prevSSE-sse) < tolerance {
			break
		}
		prevSSE = sse

		phiGrad := make([]float64, p)
		thetaGrad := make([]float64, q)
		for t := start; t < n; t++ {
			for i := 0; i < p && t-i-1 >= 0; i++ {
				phiGrad[i] -= 2 * resid[t] * (y[t-i-1] - m.intercept)
			}
			for i := 0; i < q && t-i-1 >= 0; i++ {
				thetaGrad[i] -= 2 * resid[t] * resid[t-i-1]
			}
		}

		for i := 0; i < p; i++ {
			m.phi[i] = clamp(m.phi[i]-learningRate*phiGrad[i]/float64(n), -0.99, 0.99)
		}
		for i := 0; i < q; i++ {
			m.theta[i] = clamp(m.theta[i]-learningRate*thetaGrad[i]/float64(n), -0.99, 0.99)
		}
	}

	for t := 0; t < n; t++ {
		resid[t] = y[t] - m.predictAt(y, resid, t)
	}
	m.residuals = resid
}

// predictAt computes the one-step prediction for index t on the differenced scale.
func (m *Model) predictAt(y, resid []float64, t int) float64 {
	pred := m.intercept
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.phi[i] * (y[t-i-1] - m.intercept)
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.theta[i] * resid[t-i-1]
	}
	return pred
}

// integrate undoes the D differencing rounds so forecasts come back on the
// original scale.
func (m *Model) integrate(forecast []float64) []float64 {
	result := append([]float64(nil), forecast...)
	for i := 0; i < m.Order.D; i++ {
		last := m.original[len(m.original)-1-i]
		for j := range result {
			if j == 0 {
				result[j] += last
			} else {
				result[j] += result[j-1]
			}
		}
	}
	return result
}

// difference returns the first-differenced series (length shrinks by one).
func difference(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// autocorrelation returns the sample autocorrelations r[0..maxLag]. The
// second return value is false when the series has no variance.
func autocorrelation(values []float64, maxLag int) ([]float64, bool) {
	n := len(values)
	mu := mean(values)

	c0 := 0.0
	for _, v := range values {
		c0 += (v - mu) * (v - mu)
	}
	if c0 == 0 {
		return nil, false
	}

	r := make([]float64, maxLag+1)
	r[0] = 1
	for lag := 1; lag <= maxLag && lag < n; lag++ {
		c := 0.0
		for t := lag; t < n; t++ {
			c += (values[t] - mu) * (values[t-lag] - mu)
		}
		r[lag] = c / c0
	}
	return r, true
}

// levinsonDurbin solves the Yule-Walker equations for AR coefficients.
func levinsonDurbin(r []float64, order int) []float64 {
	if order <= 0 || len(r) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = r[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for k := 1; k < order; k++ {
		if v <= 0 {
			break
		}
		lambda := r[k+1]
		for j := 0; j < k; j++ {
			lambda -= phi[j] * r[k-j]
		}
		lambda /= v

		next := make([]float64, k+1)
		for j := 0; j < k; j++ {
			next[j] = phi[j] - lambda*phi[k-1-j]
		}
		next[k] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}
	return phi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
