package strategy

import (
	"errors"
	"fmt"
	"math"
)

const minDistributionLevels = 9

var ErrInvalidDistribution = errors.New("некорректные параметры распределения объёма")

// Distribution models cumulative ladder volume as lots = B * exp(a * distance).
// Coefficients live between Fit and Predict; use one instance per ladder.
type Distribution struct {
	a      float64
	b      float64
	fitted bool
}

func NewDistribution() *Distribution {
	return &Distribution{}
}

// Fit runs a least squares regression of log(lots) on the price distance of
// each level. Level i holds lots[i-1]*(1+leverage), level 0 holds initialLots.
func (d *Distribution) Fit(levels int, distancePerLevel, initialLots, leverage float64) error {
	d.fitted = false

	switch {
	case !finite(distancePerLevel) || !finite(initialLots) || !finite(leverage):
		return fmt.Errorf("%w: нечисловой параметр", ErrInvalidDistribution)
	case initialLots <= 0:
		return fmt.Errorf("%w: начальный объём %v", ErrInvalidDistribution, initialLots)
	case distancePerLevel <= 0:
		return fmt.Errorf("%w: шаг уровня %v", ErrInvalidDistribution, distancePerLevel)
	case leverage <= -1:
		return fmt.Errorf("%w: множитель %v", ErrInvalidDistribution, leverage)
	}

	if levels < minDistributionLevels {
		levels = minDistributionLevels
	}

	xs := make([]float64, levels)
	ys := make([]float64, levels)
	lots := initialLots
	for i := 0; i < levels; i++ {
		if i > 0 {
			lots *= 1 + leverage
		}
		xs[i] = float64(i) * distancePerLevel
		ys[i] = math.Log(lots)
	}

	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(levels)
	meanY /= float64(levels)

	var num, den float64
	for i := range xs {
		num += (xs[i] - meanX) * (ys[i] - meanY)
		den += (xs[i] - meanX) * (xs[i] - meanX)
	}

	a := num / den
	b := meanY - a*meanX
	if !finite(a) || !finite(b) {
		return fmt.Errorf("%w: вырожденная регрессия", ErrInvalidDistribution)
	}

	d.a, d.b, d.fitted = a, b, true
	return nil
}

// Predict returns the cumulative volume expected at distance. Zero before Fit.
func (d *Distribution) Predict(distance float64) float64 {
	if !d.fitted {
		return 0
	}
	return math.Exp(d.b) * math.Exp(d.a*distance)
}

// Coefficients returns the growth rate a and the scale B of the fitted curve.
func (d *Distribution) Coefficients() (a, b float64) {
	return d.a, math.Exp(d.b)
}
