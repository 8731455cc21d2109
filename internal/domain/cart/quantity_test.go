package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "3", want: 3},
		{in: " 12 ", want: 12},
		{in: "3.7", want: 3},
		{in: "4abc", want: 4},
		{in: "+2", want: 2},
		{in: "-5", want: -5},
		{in: "0", want: 0},
		{in: "", want: 1},
		{in: "abc", want: 1},
		{in: "-", want: 1},
		{in: "12000", want: MaxQuantity},
		{in: "99999999999999999999999", want: MaxQuantity},
		{in: "-99999999999999999999999", want: -MaxQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuantity(tt.in))
		})
	}
}
