package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// OverviewStats is the dashboard headline aggregate.
type OverviewStats struct {
	TotalJobs      int            `json:"total_jobs"`
	JobsToday      int            `json:"jobs_today"`
	AvgFixedBudget float64        `json:"avg_fixed_budget"`
	FixedCount     int            `json:"fixed_count"`
	HourlyCount    int            `json:"hourly_count"`
	TierBreakdown  map[string]int `json:"tier_breakdown"`
	TopCountries   []CountryCount `json:"top_countries"`
	TopSkills      []SkillCount   `json:"top_skills"`
}

// CountryCount is one entry of the top-countries breakdown.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// SkillCount is a skill with its referencing-job count. The count is
// maintained by the read layer, not the ingest engine.
type SkillCount struct {
	UID      string `json:"uid"`
	Label    string `json:"label"`
	JobCount int    `json:"job_count"`
}

// BudgetBucket is one bar of a budget histogram.
type BudgetBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// BudgetStats holds the fixed-price and hourly budget distributions.
type BudgetStats struct {
	Fixed  []BudgetBucket `json:"fixed"`
	Hourly []BudgetBucket `json:"hourly"`
}

// TrendRow is the minimal job projection used for daily trend grouping.
type TrendRow struct {
	CreatedOn   time.Time
	JobType     JobType
	Tier        Tier
	FixedBudget *float64
}

// DailyTrend aggregates one calendar day of postings.
type DailyTrend struct {
	Date           string         `json:"date"`
	TotalJobs      int            `json:"total_jobs"`
	FixedCount     int            `json:"fixed_count"`
	HourlyCount    int            `json:"hourly_count"`
	AvgFixedBudget *float64       `json:"avg_fixed_budget"`
	TierBreakdown  map[string]int `json:"tier_breakdown"`
}

// DailyStats is the persisted daily rollup row.
type DailyStats struct {
	Date           string         `json:"date"`
	TotalJobs      int            `json:"total_jobs"`
	NewJobs        int            `json:"new_jobs"`
	AvgFixedBudget *float64       `json:"avg_fixed_budget"`
	TopSkills      map[string]int `json:"top_skills"`
	TierBreakdown  map[string]int `json:"tier_breakdown"`
}

// ScoredJob is a job annotated with its profile match score.
type ScoredJob struct {
	JobWithSkills
	MatchScore int `json:"match_score"`
}

// JobDetail is the single-job read projection. MatchScore is nil when no
// profile has been configured.
type JobDetail struct {
	JobWithSkills
	MatchScore *int `json:"match_score"`
}

// ProposalRow is the job projection used for proposal-velocity analytics.
type ProposalRow struct {
	ID            int64
	Title         string
	Tier          Tier
	JobType       JobType
	ProposalsBand string
	CreatedOn     *time.Time
	FirstSeenAt   time.Time
	SnapshotCount int
}

// JobVelocity is a job's estimated proposals-per-hour.
type JobVelocity struct {
	ID                  int64   `json:"id"`
	Title               string  `json:"title"`
	Tier                Tier    `json:"tier"`
	JobType             JobType `json:"job_type"`
	ProposalsBand       string  `json:"proposals_band,omitempty"`
	ProposalsEstimate   int     `json:"proposals_estimate"`
	HoursSincePublished float64 `json:"hours_since_published"`
	Velocity            float64 `json:"velocity"`
	SnapshotCount       int     `json:"snapshot_count"`
}

// ProposalStats is the proposal-velocity analytics response.
type ProposalStats struct {
	AvgVelocityByTier    map[string]float64 `json:"avg_velocity_by_tier"`
	AvgVelocityByType    map[string]float64 `json:"avg_velocity_by_type"`
	ProposalDistribution map[string]int     `json:"proposal_distribution"`
	HottestJobs          []JobVelocity      `json:"hottest_jobs"`
}

var bandRangePattern = regexp.MustCompile(`(\d+)\s*(?:to|-)\s*(\d+)`)

// BandMidpoint converts a canonical proposals band into a numeric estimate
// usable for velocity math. Unknown bands estimate to 0.
func BandMidpoint(band string) int {
	if band == "" {
		return 0
	}
	switch {
	case strings.Contains(band, "Less than 5") || band == "0":
		return 2
	case strings.Contains(band, "5 to 10"):
		return 7
	case strings.Contains(band, "10 to 15"):
		return 12
	case strings.Contains(band, "15 to 20"):
		return 17
	case strings.Contains(band, "20 to 50"):
		return 35
	case strings.Contains(band, "50+") || strings.Contains(band, "50 +"):
		return 60
	}
	if m := bandRangePattern.FindStringSubmatch(band); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		return (lo + hi) / 2
	}
	return 0
}
