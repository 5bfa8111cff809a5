package trade

import (
	"math"

	"github.com/shopspring/decimal"
)

// normalizePrice snaps price to the nearest multiple of tick.
func normalizePrice(price, tick float64) float64 {
	if tick <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return price
	}
	step := decimal.NewFromFloat(tick)
	v, _ := decimal.NewFromFloat(price).Div(step).Round(0).Mul(step).Float64()
	return v
}

// normalizeVolume truncates volume down to a multiple of step.
func normalizeVolume(volume, step float64) float64 {
	if step <= 0 || math.IsNaN(volume) || math.IsInf(volume, 0) {
		return volume
	}
	d := decimal.NewFromFloat(step)
	v, _ := decimal.NewFromFloat(volume).Round(9).Div(d).Truncate(0).Mul(d).Float64()
	return v
}
