package order

import (
	"testing"

	"github.com/marketloop/shop/core/cart"
)

func TestTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []cart.SnapLine
		want  int
	}{
		{"empty", nil, 0},
		{
			"single line",
			[]cart.SnapLine{
				{Line: cart.Line{Quantity: 3}, Price: 500},
			},
			1500,
		},
		{
			"mixed quantities in minor units",
			[]cart.SnapLine{
				{Line: cart.Line{Quantity: 2}, Price: 1999},
				{Line: cart.Line{Quantity: 1}, Price: 500},
			},
			4498,
		},
		{
			"free item contributes nothing",
			[]cart.SnapLine{
				{Line: cart.Line{Quantity: 5}, Price: 0},
				{Line: cart.Line{Quantity: 1}, Price: 100},
			},
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Total(tt.lines); got != tt.want {
				t.Fatalf("Total() = %d, want %d", got, tt.want)
			}
		})
	}
}
