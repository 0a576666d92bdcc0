package dosing

import (
	"math"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// SplitHalves returns the two halves of a split dose, each rounded to 2
// decimals. Both halves are always equal.
func SplitHalves(grams float64) (first, second decimal.Decimal) {
	half := decimal.NewFromFloat(grams).Div(two).Round(2)
	return half, half
}

// SplitAdvice returns administration advice for a dose of grams:
// nothing for a negligible or non-finite dose, a single application below
// the split threshold, otherwise two equal halves 12–24 h apart.
func (c *Calculator) SplitAdvice(grams float64, loc Locale) string {
	if math.IsNaN(grams) || math.IsInf(grams, 0) || grams <= c.coef.NegligibleGrams {
		return ""
	}
	p := loc.printer()
	if grams < c.coef.SplitThresholdGrams {
		return p.Sprintf(msgDoseInOneGo)
	}
	first, second := SplitHalves(grams)
	return p.Sprintf(msgSplitDose, first.StringFixed(2), second.StringFixed(2))
}

// FormatGrams formats a dose to 2 decimals. Negative and non-finite values
// format as "0.00".
func FormatGrams(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return "0.00"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
