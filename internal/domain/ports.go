package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence operations for jobs, skills, and
// snapshots.
type JobRepository interface {
	// GetJobSignals returns the stored competitive signals for a ciphertext,
	// or nil if the job has never been seen.
	GetJobSignals(ctx context.Context, ciphertext string) (*JobSignals, error)

	// UpsertJob inserts or fully replaces a job keyed by ciphertext.
	// FirstSeenAt is preserved on update. Returns the job's id and whether a
	// new row was inserted.
	UpsertJob(ctx context.Context, job *Job) (int64, bool, error)

	// InsertSnapshot appends one snapshot row. Snapshots are append-only.
	InsertSnapshot(ctx context.Context, snap *Snapshot) error

	// UpsertSkill inserts or updates a skill catalog entry.
	UpsertSkill(ctx context.Context, uid, label string) error

	// LinkJobSkill upserts the (job, skill) join row.
	LinkJobSkill(ctx context.Context, jobID int64, skillUID string, highlighted bool) error

	// ListJobs returns a filtered page of jobs plus the total match count.
	ListJobs(ctx context.Context, f JobFilters) ([]JobWithSkills, int, error)

	// GetJob returns one job with its skills, or nil if not found.
	GetJob(ctx context.Context, id int64) (*JobWithSkills, error)

	// ListSnapshots returns a job's snapshots ordered by time ascending.
	ListSnapshots(ctx context.Context, jobID int64) ([]Snapshot, error)

	// RecentJobs returns the most recently created jobs with their skills.
	RecentJobs(ctx context.Context, limit int) ([]JobWithSkills, error)
}

// ProfileRepository defines persistence for the singleton user profile.
type ProfileRepository interface {
	// GetProfile returns the profile, or nil if none has been saved yet.
	GetProfile(ctx context.Context) (*UserProfile, error)

	// SaveProfile creates or replaces the singleton profile.
	SaveProfile(ctx context.Context, profile *UserProfile) (*UserProfile, error)
}

// StatsRepository defines the read queries backing analytics.
type StatsRepository interface {
	Overview(ctx context.Context) (*OverviewStats, error)
	TopSkills(ctx context.Context, limit int) ([]SkillCount, error)
	FixedBudgets(ctx context.Context) ([]float64, error)
	HourlyMaxBudgets(ctx context.Context) ([]float64, error)
	TrendRows(ctx context.Context, since time.Time) ([]TrendRow, error)
	ProposalRows(ctx context.Context, limit int) ([]ProposalRow, error)

	// SaveDailyStats upserts the rollup row for its date.
	SaveDailyStats(ctx context.Context, stats *DailyStats) error
}

// EventPublisher pushes ingest summaries to live subscribers.
type EventPublisher interface {
	PublishIngest(event IngestEvent)
}
