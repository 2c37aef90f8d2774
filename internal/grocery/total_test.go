package grocery

import (
	"math"
	"testing"

	"github.com/dukerupert/listkeeper/internal/model"
)

func price(v float64) *float64 { return &v }

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []model.Item
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []model.Item{{Quantity: 2, Price: price(5)}}, 10},
		{"mixed", []model.Item{
			{Quantity: 2, Price: price(5)},
			{Quantity: 1, Price: price(6.5)},
		}, 16.5},
		{"no price ignored", []model.Item{
			{Quantity: 3, Price: nil},
			{Quantity: 1, Price: price(1.1)},
		}, 1.1},
		{"nan and inf ignored", []model.Item{
			{Quantity: 1, Price: price(math.NaN())},
			{Quantity: 1, Price: price(math.Inf(1))},
			{Quantity: 2, Price: price(0.1)},
		}, 0.2},
		{"negative ignored", []model.Item{{Quantity: 1, Price: price(-4)}}, 0},
		{"zero quantity ignored", []model.Item{{Quantity: 0, Price: price(4)}}, 0},
		{"overflowing line ignored", []model.Item{
			{Quantity: 2, Price: price(1e308)},
			{Quantity: 1, Price: price(3)},
		}, 3},
		{"overflowing sum stops growing", []model.Item{
			{Quantity: 1, Price: price(math.MaxFloat64)},
			{Quantity: 1, Price: price(math.MaxFloat64)},
		}, math.MaxFloat64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateTotal(tt.items); got != tt.want {
				t.Errorf("CalculateTotal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLineTotal(t *testing.T) {
	line, ok := LineTotal(model.Item{Quantity: 3, Price: price(2.5)})
	if !ok || line != 7.5 {
		t.Errorf("LineTotal() = %v, %v, want 7.5, true", line, ok)
	}
	if _, ok := LineTotal(model.Item{Quantity: 2, Price: price(1e308)}); ok {
		t.Error("LineTotal() accepted an overflowing product")
	}
	if _, ok := LineTotal(model.Item{Quantity: 1}); ok {
		t.Error("LineTotal() accepted an item without price")
	}
}
