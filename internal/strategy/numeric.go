package strategy

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundToStep snaps value to the nearest multiple of step.
func RoundToStep(value, step float64) float64 {
	if step <= 0 || !finite(value) {
		return value
	}
	s := decimal.NewFromFloat(step)
	n := decimal.NewFromFloat(value).Div(s).Round(0)
	f, _ := n.Mul(s).Float64()
	return f
}

// TruncateToStep drops everything below step, towards zero. The value is
// rounded to 9 places first so 1.9999999999 from exp/log noise counts as 2.
func TruncateToStep(value, step float64) float64 {
	if !finite(value) {
		return 0
	}
	v := decimal.NewFromFloat(value).Round(9)
	if step <= 0 {
		f, _ := v.Truncate(0).Float64()
		return f
	}
	s := decimal.NewFromFloat(step)
	n := v.Div(s).Truncate(0)
	f, _ := n.Mul(s).Float64()
	return f
}

func samePrice(a, b, tick float64) bool {
	if tick <= 0 {
		return a == b
	}
	return math.Abs(a-b) < tick/2
}

func sameVolume(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
