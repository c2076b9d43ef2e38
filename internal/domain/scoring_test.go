package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestComputeClientScore(t *testing.T) {
	tests := []struct {
		name  string
		stats ClientStats
		want  float64
	}{
		{
			name:  "empty client scores zero",
			stats: ClientStats{},
			want:  0,
		},
		{
			name: "verified spender with strong reviews",
			stats: ClientStats{
				PaymentVerified: true,
				TotalSpent:      12000,
				TotalReviews:    25,
				TotalFeedback:   4.8,
			},
			// 1.5 + 2.5 (capped) + 1.5 (capped) + 2.4
			want: 7.9,
		},
		{
			name: "spend and reviews below their caps",
			stats: ClientStats{
				TotalSpent:   5000,
				TotalReviews: 10,
			},
			// 1.25 + 0.75
			want: 2,
		},
		{
			name: "detail components add on top",
			stats: ClientStats{
				PaymentVerified:   true,
				TotalSpent:        12000,
				TotalReviews:      25,
				TotalFeedback:     4.8,
				TotalAssignments:  intp(20),
				JobsWithHires:     intp(20),
				ActiveAssignments: intp(2),
			},
			// 7.9 + 1 + 0.5 + 0.3
			want: 9.7,
		},
		{
			name: "open jobs penalty",
			stats: ClientStats{
				PaymentVerified: true,
				TotalFeedback:   5,
				OpenJobs:        intp(5),
			},
			// 1.5 + 2.5 - 0.3
			want: 3.7,
		},
		{
			name: "penalty alone clamps at zero",
			stats: ClientStats{
				OpenJobs: intp(10),
			},
			want: 0,
		},
		{
			name: "hire rate capped at half point",
			stats: ClientStats{
				TotalAssignments: intp(4),
				JobsWithHires:    intp(8),
			},
			// 0.4 assignments + 0.5 capped hire rate
			want: 0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeClientScore(tt.stats), 1e-9)
		})
	}
}

func TestComputeClientScoreBounds(t *testing.T) {
	inputs := []ClientStats{
		{},
		{TotalSpent: 1e12, TotalReviews: 1 << 20, TotalFeedback: 5, PaymentVerified: true,
			TotalAssignments: intp(1000), JobsWithHires: intp(1000), ActiveAssignments: intp(50)},
		{TotalSpent: -500, TotalReviews: -3, TotalFeedback: -1, OpenJobs: intp(99)},
	}
	for _, stats := range inputs {
		score := ComputeClientScore(stats)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 10.0)
	}
}
