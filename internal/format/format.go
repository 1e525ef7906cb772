package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent renders a ratio such as "0.1234" as "12.34%". An empty or blank value counts as 0.
// Values that are not finite float64 numbers, including already formatted percentages, are
// returned as is.
func Percent(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		s = "0"
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return v
	}
	return decimal.NewFromFloat(f).Mul(hundred).StringFixed(2) + "%"
}
