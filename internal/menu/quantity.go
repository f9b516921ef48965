package menu

import (
	"math"

	logx "github.com/bowlmetrics/server/pkg/logger"
)

// InferQuantity recovers how many identical meal units a merged POS line holds.
//
// The POS charges (base + addons) * quantity * discount for a merged line, so
// the observed price is undiscounted and then split across candidate
// quantities, highest first. A candidate is accepted when the per-unit
// leftover is zero within tolerance, or is a plausible sum of known add-on
// prices.
//
// The result is always at least 1.
func (c *Catalog) InferQuantity(name string, observedPrice float64) int {
	base, ok := c.BasePrice(name)
	if !ok {
		logx.Debug().Str("item", name).Msg("unknown product, assuming single unit")
		return 1
	}

	opts := c.Inference
	original := observedPrice / c.DiscountFactor

	start := int(math.Ceil(original/base)) + 1
	for q := start; q >= 1; q-- {
		perUnit := original / float64(q)
		addon := perUnit - base

		if addon < -opts.PriceTolerance {
			continue
		}
		if math.Abs(addon) <= opts.PriceTolerance {
			return q
		}
		if addon > opts.MaxAddonPerUnit {
			continue
		}
		if addonReachable(int(math.Round(addon)), opts.AddonTolerance, c.AddonPrices) {
			return q
		}
	}

	logx.Debug().
		Str("item", name).
		Float64("price", observedPrice).
		Msg("no feasible quantity, assuming single unit")
	return 1
}

// addonReachable reports whether any amount within target±tol can be paid as a
// non-negative combination of prices (unbounded coin reachability).
func addonReachable(target, tol int, prices []int) bool {
	if len(prices) == 0 {
		return false
	}
	hi := target + tol
	if hi < 0 {
		return false
	}
	lo := max(target-tol, 0)

	reach := make([]bool, hi+1)
	reach[0] = true
	for amount := 1; amount <= hi; amount++ {
		for _, p := range prices {
			if p <= amount && reach[amount-p] {
				reach[amount] = true
				break
			}
		}
	}

	for amount := lo; amount <= hi; amount++ {
		if reach[amount] {
			return true
		}
	}
	return false
}
