package domain

import "math"

// ClientStats carries the hiring client's observable track record. The
// pointer fields are only known from the job detail page; leave them nil when
// the source is a shallow feed observation so their score components are
// omitted rather than zero-filled.
type ClientStats struct {
	PaymentVerified bool
	TotalSpent      float64
	TotalReviews    int
	TotalFeedback   float64

	TotalAssignments  *int
	JobsWithHires     *int
	ActiveAssignments *int
	OpenJobs          *int
}

// ComputeClientScore returns a 0-10 quality score for a hiring client,
// rounded to one decimal. Each component is capped independently so the scale
// stays comparable between shallow and detailed observations.
func ComputeClientScore(c ClientStats) float64 {
	var score float64

	// Payment verified: +1.5
	if c.PaymentVerified {
		score += 1.5
	}

	// Total spent: 0-2.5, $10k+ maxes out
	score += math.Min(2.5, c.TotalSpent/10000*2.5)

	// Review count: 0-1.5, 20+ maxes out
	score += math.Min(1.5, float64(c.TotalReviews)/20*1.5)

	// Feedback rating: 0-2.5, scaled from the 0-5 scale
	score += c.TotalFeedback / 5 * 2.5

	// Total assignments: 0-1, 10+ maxes out
	if c.TotalAssignments != nil {
		score += math.Min(1, float64(*c.TotalAssignments)/10)
	}

	// Hire rate: 0-0.5, jobs with hires over total assignments
	if c.JobsWithHires != nil && c.TotalAssignments != nil && *c.TotalAssignments > 0 {
		hireRate := float64(*c.JobsWithHires) / float64(*c.TotalAssignments)
		score += math.Min(0.5, hireRate*0.5)
	}

	// Active contracts: +0.3
	if c.ActiveAssignments != nil && *c.ActiveAssignments > 0 {
		score += 0.3
	}

	// Open jobs penalty: -0.3 at 5+, signals low-intent posting
	if c.OpenJobs != nil && *c.OpenJobs >= 5 {
		score -= 0.3
	}

	return math.Round(math.Min(10, math.Max(0, score))*10) / 10
}
