package domain

import "time"

// JobType classifies how a job pays.
type JobType string

const (
	JobTypeFixed  JobType = "fixed"
	JobTypeHourly JobType = "hourly"
)

// Tier is the site's skill-level classification for a posting.
type Tier string

const (
	TierExpert       Tier = "expert"
	TierIntermediate Tier = "intermediate"
	TierEntry        Tier = "entry"
)

// Engagement is the expected weekly workload. Empty means unknown.
type Engagement string

const (
	EngagementFullTime Engagement = "full_time"
	EngagementPartTime Engagement = "part_time"
)

// Job is the canonical, persisted job record. Ciphertext is the natural key;
// a job is created on the first ingestion of a ciphertext and updated (never
// deleted) on every later one.
type Job struct {
	ID         int64  `json:"id"`
	Ciphertext string `json:"ciphertext"`

	// SourceUID is the site's numeric job id. Informational only; some wire
	// shapes omit it, so it is never used as a key.
	SourceUID string `json:"source_uid,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`

	CreatedOn   *time.Time `json:"created_on"`
	PublishedOn *time.Time `json:"published_on"`

	// FirstSeenAt and LastSeenAt are ingestion bookkeeping, not present in
	// the source payloads.
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`

	JobType    JobType    `json:"job_type"`
	Duration   string     `json:"duration,omitempty"`
	Engagement Engagement `json:"engagement,omitempty"`

	// FixedBudget is set only for fixed-price jobs; HourlyMin/HourlyMax only
	// for hourly jobs.
	FixedBudget *float64 `json:"fixed_budget"`
	HourlyMin   *float64 `json:"hourly_min"`
	HourlyMax   *float64 `json:"hourly_max"`

	Tier Tier `json:"tier"`

	// ProposalsBand is the human-readable applicant-count band, e.g. "5 to 10".
	ProposalsBand string `json:"proposals_band,omitempty"`

	IsPremium         bool `json:"is_premium"`
	FreelancersToHire int  `json:"freelancers_to_hire"`
	IsApplied         bool `json:"is_applied"`

	ClientCountry         string   `json:"client_country,omitempty"`
	ClientPaymentVerified bool     `json:"client_payment_verified"`
	ClientTotalSpent      *float64 `json:"client_total_spent"`
	ClientTotalReviews    int      `json:"client_total_reviews"`
	ClientTotalFeedback   *float64 `json:"client_total_feedback"`
	ClientQualityScore    float64  `json:"client_quality_score"`

	SourceURL   string `json:"source_url,omitempty"`
	SearchQuery string `json:"search_query,omitempty"`

	// Hiring-activity counters are only available from the job detail page.
	JobStatus         string `json:"job_status,omitempty"`
	TotalHired        *int   `json:"total_hired"`
	TotalApplicants   *int   `json:"total_applicants"`
	TotalInvited      *int   `json:"total_invited"`
	InvitationsSent   *int   `json:"invitations_sent"`
	UnansweredInvites *int   `json:"unanswered_invites"`
	LastBuyerActivity string `json:"last_buyer_activity,omitempty"`
}

// SkillRef is a skill attached to a job on the wire. Highlighted marks a
// site-flagged mandatory skill.
type SkillRef struct {
	UID         string `json:"uid"`
	Label       string `json:"label"`
	Highlighted bool   `json:"highlighted"`
}

// IncomingJob is a normalized job plus its skills, ready for ingestion.
type IncomingJob struct {
	Job    Job
	Skills []SkillRef
}

// JobSkill is a persisted (job, skill) link.
type JobSkill struct {
	SkillUID    string `json:"skill_uid"`
	Label       string `json:"label"`
	Highlighted bool   `json:"is_highlighted"`
}

// JobWithSkills is a job projection including its linked skills.
type JobWithSkills struct {
	Job
	Skills []JobSkill `json:"skills"`
}

// SkillLabels returns the display labels of the linked skills.
func (j *JobWithSkills) SkillLabels() []string {
	labels := make([]string, 0, len(j.Skills))
	for _, s := range j.Skills {
		labels = append(labels, s.Label)
	}
	return labels
}

// Snapshot is an immutable record of a job's competitive signals at one
// observed instant. Snapshots are appended when the signals change and are
// never mutated or deleted; proposal-velocity trends are reconstructed from
// them later.
type Snapshot struct {
	ID                int64     `json:"id"`
	JobID             int64     `json:"job_id"`
	SnapshotAt        time.Time `json:"snapshot_at"`
	ProposalsBand     string    `json:"proposals_band,omitempty"`
	FreelancersToHire int       `json:"freelancers_to_hire"`
	IsApplied         bool      `json:"is_applied"`
	TotalHired        *int      `json:"total_hired"`
	TotalApplicants   *int      `json:"total_applicants"`
}

// JobSignals is the stored competitive state used to decide whether a new
// observation warrants a snapshot.
type JobSignals struct {
	JobID             int64
	ProposalsBand     string
	FreelancersToHire int
	IsApplied         bool
}

// UserProfile is the singleton freelancer profile jobs are matched against.
// The API key authenticates the ingestion channel and is never exposed on read.
type UserProfile struct {
	ID             int64    `json:"id"`
	Skills         []string `json:"skills"`
	HourlyRate     *float64 `json:"hourly_rate"`
	PreferredTiers []Tier   `json:"preferred_tiers"`
	MinBudget      *float64 `json:"min_budget"`
	APIKey         string   `json:"-"`
}

// JobFilters narrows and pages the job list.
type JobFilters struct {
	Tier    Tier
	JobType JobType
	Skill   string
	Country string
	Query   string
	Page    int
	Limit   int
	Sort    string
	Order   string
}

// IngestResult summarizes one ingestion batch.
type IngestResult struct {
	Received int `json:"received"`
	Inserted int `json:"inserted"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped"`
}

// IngestEvent is broadcast to live dashboard clients after each batch.
type IngestEvent struct {
	Source   string    `json:"source,omitempty"`
	Received int       `json:"received"`
	Inserted int       `json:"inserted"`
	Errors   int       `json:"errors"`
	Skipped  int       `json:"skipped"`
	At       time.Time `json:"at"`
}
