package measure

import (
	"math"
	"strings"
)

// Aggregate reduces the per-query values of one measure into a single
// corpus-level statistic. The reduction is chosen from the measure
// name's prefix:
//
//	num_*      arithmetic sum
//	gm_*       exp(sum(values) / len(values))
//	otherwise  arithmetic mean
//
// The gm_ formula expects the per-query values to be log-transformed
// already; it is preserved exactly as the reference engine computes it
// rather than as a literal product-root geometric mean.
//
// Aggregating an empty slice is a caller error: mean and gm_ produce
// NaN, num_ produces 0.
func Aggregate(name string, values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}

	switch {
	case strings.HasPrefix(name, "num_"):
		return sum
	case strings.HasPrefix(name, "gm_"):
		return math.Exp(sum / float64(len(values)))
	default:
		return sum / float64(len(values))
	}
}
