package grocery

import (
	"math"

	"github.com/dukerupert/listkeeper/internal/model"
)

// CalculateTotal sums price × quantity over items that carry a finite price.
// Items without a price, with a negative or non-finite price, or with a
// non-positive quantity contribute nothing. So does any line whose amount
// would push the total past the float64 range.
func CalculateTotal(items []model.Item) float64 {
	var total float64
	for _, it := range items {
		line, ok := LineTotal(it)
		if !ok {
			continue
		}
		if next := total + line; !math.IsInf(next, 0) {
			total = next
		}
	}
	return total
}

// LineTotal returns price × quantity for one item. ok is false when the
// item has no usable price or the product is not a finite number.
func LineTotal(it model.Item) (float64, bool) {
	if it.Price == nil || it.Quantity <= 0 {
		return 0, false
	}
	p := *it.Price
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0, false
	}
	line := p * float64(it.Quantity)
	if math.IsInf(line, 0) {
		return 0, false
	}
	return line, true
}
