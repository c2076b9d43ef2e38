package domain

import (
	"math"
	"strings"
)

// ComputeMatchScore returns a 0-100 fit score between a job and the user
// profile. Components: skill overlap up to 40, tier match 20, budget fit up
// to 20, client quality up to 20.
func ComputeMatchScore(job *Job, jobSkills []string, profile *UserProfile) int {
	var score int

	// Skill overlap, proportional to how much of the profile the job covers
	if len(profile.Skills) > 0 && len(jobSkills) > 0 {
		profileSet := make(map[string]struct{}, len(profile.Skills))
		for _, s := range profile.Skills {
			profileSet[strings.ToLower(s)] = struct{}{}
		}
		matches := 0
		for _, s := range jobSkills {
			if _, ok := profileSet[strings.ToLower(s)]; ok {
				matches++
			}
		}
		score += int(math.Round(float64(matches) / float64(len(profile.Skills)) * 40))
	}

	// Preferred tier
	for _, t := range profile.PreferredTiers {
		if t == job.Tier {
			score += 20
			break
		}
	}

	// Budget fit. Hourly jobs give partial credit when the rate clears the
	// ceiling but sits below the posted floor.
	switch {
	case job.JobType == JobTypeFixed && job.FixedBudget != nil && profile.MinBudget != nil:
		if *job.FixedBudget >= *profile.MinBudget {
			score += 20
		}
	case job.JobType == JobTypeHourly && profile.HourlyRate != nil:
		rate := *profile.HourlyRate
		if job.HourlyMin != nil && job.HourlyMax != nil && rate >= *job.HourlyMin && rate <= *job.HourlyMax {
			score += 20
		} else if job.HourlyMax != nil && rate <= *job.HourlyMax {
			score += 15
		}
	}

	// Client quality
	score += int(math.Round(job.ClientQualityScore / 10 * 20))

	if score > 100 {
		score = 100
	}
	return score
}
