package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandMidpoint(t *testing.T) {
	tests := []struct {
		band string
		want int
	}{
		{"", 0},
		{"Less than 5", 2},
		{"5 to 10", 7},
		{"10 to 15", 12},
		{"15 to 20", 17},
		{"20 to 50", 35},
		{"50+", 60},
		{"50 +", 60},
		{"3 to 9", 6},
		{"30-40", 35},
		{"Unknown", 0},
	}

	for _, tt := range tests {
		t.Run(tt.band, func(t *testing.T) {
			assert.Equal(t, tt.want, BandMidpoint(tt.band))
		})
	}
}
