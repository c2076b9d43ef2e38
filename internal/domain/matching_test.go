package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatp(v float64) *float64 { return &v }

func TestComputeMatchScore(t *testing.T) {
	profile := &UserProfile{
		Skills:         []string{"Go", "PostgreSQL", "Docker", "Kubernetes"},
		HourlyRate:     floatp(50),
		PreferredTiers: []Tier{TierExpert},
		MinBudget:      floatp(1000),
	}

	tests := []struct {
		name      string
		job       Job
		jobSkills []string
		want      int
	}{
		{
			name: "everything maxed scores 100",
			job: Job{
				JobType:            JobTypeFixed,
				Tier:               TierExpert,
				FixedBudget:        floatp(5000),
				ClientQualityScore: 10,
			},
			jobSkills: []string{"go", "postgresql", "docker", "kubernetes"},
			want:      100,
		},
		{
			name: "half skill overlap is proportional",
			job: Job{
				JobType: JobTypeHourly,
				Tier:    TierEntry,
			},
			jobSkills: []string{"Go", "Docker", "PHP"},
			want:      20,
		},
		{
			name: "skill matching is case insensitive",
			job: Job{
				JobType: JobTypeHourly,
			},
			jobSkills: []string{"GO"},
			want:      10,
		},
		{
			name: "tier match alone",
			job: Job{
				JobType: JobTypeHourly,
				Tier:    TierExpert,
			},
			want: 20,
		},
		{
			name: "hourly rate in range",
			job: Job{
				JobType:   JobTypeHourly,
				HourlyMin: floatp(40),
				HourlyMax: floatp(60),
			},
			want: 20,
		},
		{
			name: "hourly rate below floor gets partial credit",
			job: Job{
				JobType:   JobTypeHourly,
				HourlyMin: floatp(60),
				HourlyMax: floatp(80),
			},
			want: 15,
		},
		{
			name: "hourly rate above ceiling gets nothing",
			job: Job{
				JobType:   JobTypeHourly,
				HourlyMin: floatp(10),
				HourlyMax: floatp(30),
			},
			want: 0,
		},
		{
			name: "fixed budget below minimum gets nothing",
			job: Job{
				JobType:     JobTypeFixed,
				FixedBudget: floatp(500),
			},
			want: 0,
		},
		{
			name: "client quality scales to 20",
			job: Job{
				JobType:            JobTypeHourly,
				ClientQualityScore: 7.9,
			},
			want: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMatchScore(&tt.job, tt.jobSkills, profile)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestComputeMatchScoreEmptyProfile(t *testing.T) {
	job := Job{JobType: JobTypeFixed, Tier: TierExpert, FixedBudget: floatp(5000)}
	got := ComputeMatchScore(&job, []string{"Go"}, &UserProfile{})
	assert.Equal(t, 0, got)
}
