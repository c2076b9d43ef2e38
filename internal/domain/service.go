package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
)

// errBlockedCountry marks a job silently rejected by the country policy. It
// is counted as skipped, never as an error.
var errBlockedCountry = errors.New("client country is blocked")

// Service is the core domain service. It owns the ingest/upsert engine and
// the read-side projections, and talks to storage only through the
// repository ports.
type Service struct {
	jobs     JobRepository
	profiles ProfileRepository
	stats    StatsRepository
	events   EventPublisher
	blocked  map[string]struct{} // canonical country names, lowercased
	logger   *slog.Logger
}

// NewService creates a Service. events may be nil when no live subscribers
// are wired. blockedCountries is matched case-insensitively against the
// normalized client country.
func NewService(
	jobs JobRepository,
	profiles ProfileRepository,
	stats StatsRepository,
	events EventPublisher,
	blockedCountries []string,
	logger *slog.Logger,
) *Service {
	blocked := make(map[string]struct{}, len(blockedCountries))
	for _, c := range blockedCountries {
		c = strings.TrimSpace(strings.ToLower(c))
		if c != "" {
			blocked[c] = struct{}{}
		}
	}

	return &Service{
		jobs:     jobs,
		profiles: profiles,
		stats:    stats,
		events:   events,
		blocked:  blocked,
		logger:   logger,
	}
}

// IngestBatch runs the upsert engine over a batch of normalized jobs. Jobs
// are processed one at a time; a failure on one job never aborts the batch.
func (s *Service) IngestBatch(ctx context.Context, incoming []IncomingJob, source string) IngestResult {
	result := IngestResult{Received: len(incoming)}

	for i := range incoming {
		err := s.ingestOne(ctx, &incoming[i])
		switch {
		case errors.Is(err, errBlockedCountry):
			result.Skipped++
		case err != nil:
			s.logger.Error("ingest job failed",
				"ciphertext", incoming[i].Job.Ciphertext,
				"error", err,
			)
			result.Errors++
		default:
			result.Inserted++
		}
	}

	s.logger.Info("ingest batch complete",
		"source", source,
		"received", result.Received,
		"inserted", result.Inserted,
		"errors", result.Errors,
		"skipped", result.Skipped,
	)

	if s.events != nil {
		s.events.PublishIngest(IngestEvent{
			Source:   source,
			Received: result.Received,
			Inserted: result.Inserted,
			Errors:   result.Errors,
			Skipped:  result.Skipped,
			At:       time.Now().UTC(),
		})
	}

	return result
}

// ingestOne persists one job: upsert, conditional snapshot, skill links.
// The writes are sequenced, not transactional across jobs; re-ingestion is
// idempotent and reconciles any partial state on the next observation.
func (s *Service) ingestOne(ctx context.Context, incoming *IncomingJob) error {
	job := &incoming.Job

	if _, ok := s.blocked[strings.ToLower(job.ClientCountry)]; ok {
		s.logger.Debug("skipping job from blocked country",
			"ciphertext", job.Ciphertext,
			"country", job.ClientCountry,
		)
		return errBlockedCountry
	}

	signals, err := s.jobs.GetJobSignals(ctx, job.Ciphertext)
	if err != nil {
		return fmt.Errorf("get job signals: %w", err)
	}

	changed := signals == nil ||
		signals.ProposalsBand != job.ProposalsBand ||
		signals.FreelancersToHire != job.FreelancersToHire ||
		signals.IsApplied != job.IsApplied

	now := time.Now().UTC()
	job.LastSeenAt = now

	jobID, _, err := s.jobs.UpsertJob(ctx, job)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}

	if changed {
		snap := &Snapshot{
			JobID:             jobID,
			SnapshotAt:        now,
			ProposalsBand:     job.ProposalsBand,
			FreelancersToHire: job.FreelancersToHire,
			IsApplied:         job.IsApplied,
			TotalHired:        job.TotalHired,
			TotalApplicants:   job.TotalApplicants,
		}
		if err := s.jobs.InsertSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}

	for _, skill := range incoming.Skills {
		if skill.UID == "" {
			continue
		}
		if err := s.jobs.UpsertSkill(ctx, skill.UID, skill.Label); err != nil {
			return fmt.Errorf("upsert skill %s: %w", skill.UID, err)
		}
		if err := s.jobs.LinkJobSkill(ctx, jobID, skill.UID, skill.Highlighted); err != nil {
			return fmt.Errorf("link skill %s: %w", skill.UID, err)
		}
	}

	return nil
}

// ListJobs returns a filtered page of jobs plus the total match count.
func (s *Service) ListJobs(ctx context.Context, f JobFilters) ([]JobWithSkills, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	jobs, total, err := s.jobs.ListJobs(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

// GetJob returns one job with its skills and, when a profile exists, its
// match score. Returns nil when the job does not exist.
func (s *Service) GetJob(ctx context.Context, id int64) (*JobDetail, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		return nil, nil
	}

	detail := &JobDetail{JobWithSkills: *job}

	profile, err := s.profiles.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile != nil {
		score := ComputeMatchScore(&job.Job, job.SkillLabels(), profile)
		detail.MatchScore = &score
	}

	return detail, nil
}

// JobHistory returns a job's snapshots ordered by time ascending.
func (s *Service) JobHistory(ctx context.Context, jobID int64) ([]Snapshot, error) {
	snaps, err := s.jobs.ListSnapshots(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

// GetProfile returns the singleton profile, or nil when none exists.
func (s *Service) GetProfile(ctx context.Context) (*UserProfile, error) {
	return s.profiles.GetProfile(ctx)
}

// SaveProfile creates or replaces the singleton profile.
func (s *Service) SaveProfile(ctx context.Context, profile *UserProfile) (*UserProfile, error) {
	saved, err := s.profiles.SaveProfile(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

// Overview returns the dashboard headline aggregate.
func (s *Service) Overview(ctx context.Context) (*OverviewStats, error) {
	return s.stats.Overview(ctx)
}

// SkillStats returns the most-referenced skills.
func (s *Service) SkillStats(ctx context.Context, limit int) ([]SkillCount, error) {
	if limit < 1 {
		limit = 30
	}
	return s.stats.TopSkills(ctx, limit)
}

var fixedBudgetBuckets = []struct {
	label    string
	min, max float64
}{
	{"$0-100", 0, 100},
	{"$100-500", 100, 500},
	{"$500-1k", 500, 1000},
	{"$1k-5k", 1000, 5000},
	{"$5k-10k", 5000, 10000},
	{"$10k+", 10000, -1},
}

var hourlyBudgetBuckets = []struct {
	label    string
	min, max float64
}{
	{"$0-25", 0, 25},
	{"$25-50", 25, 50},
	{"$50-75", 50, 75},
	{"$75-100", 75, 100},
	{"$100+", 100, -1},
}

// BudgetStats returns the fixed and hourly budget distributions.
func (s *Service) BudgetStats(ctx context.Context) (*BudgetStats, error) {
	fixed, err := s.stats.FixedBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("fixed budgets: %w", err)
	}
	hourly, err := s.stats.HourlyMaxBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("hourly budgets: %w", err)
	}

	stats := &BudgetStats{}
	for _, b := range fixedBudgetBuckets {
		stats.Fixed = append(stats.Fixed, BudgetBucket{Label: b.label, Count: countInBucket(fixed, b.min, b.max)})
	}
	for _, b := range hourlyBudgetBuckets {
		stats.Hourly = append(stats.Hourly, BudgetBucket{Label: b.label, Count: countInBucket(hourly, b.min, b.max)})
	}
	return stats, nil
}

func countInBucket(values []float64, min, max float64) int {
	count := 0
	for _, v := range values {
		if v >= min && (max < 0 || v < max) {
			count++
		}
	}
	return count
}

// TopMatches scores recent jobs against the profile and returns the best
// fits. Fails when no profile has been configured.
func (s *Service) TopMatches(ctx context.Context, limit int) ([]ScoredJob, error) {
	profile, err := s.profiles.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNoProfile
	}

	if limit < 1 {
		limit = 20
	}

	jobs, err := s.jobs.RecentJobs(ctx, 200)
	if err != nil {
		return nil, fmt.Errorf("recent jobs: %w", err)
	}

	scored := make([]ScoredJob, 0, len(jobs))
	for i := range jobs {
		score := ComputeMatchScore(&jobs[i].Job, jobs[i].SkillLabels(), profile)
		scored = append(scored, ScoredJob{JobWithSkills: jobs[i], MatchScore: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// ErrNoProfile is returned by profile-dependent reads before one is saved.
var ErrNoProfile = errors.New("no profile configured")

// Trends groups recent postings by calendar day.
func (s *Service) Trends(ctx context.Context, days int) ([]DailyTrend, error) {
	if days < 1 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.stats.TrendRows(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("trend rows: %w", err)
	}

	byDay := make(map[string]*DailyTrend)
	budgets := make(map[string][]float64)
	for _, row := range rows {
		date := row.CreatedOn.UTC().Format("2006-01-02")
		day := byDay[date]
		if day == nil {
			day = &DailyTrend{Date: date, TierBreakdown: map[string]int{}}
			byDay[date] = day
		}
		day.TotalJobs++
		switch row.JobType {
		case JobTypeFixed:
			day.FixedCount++
			if row.FixedBudget != nil {
				budgets[date] = append(budgets[date], *row.FixedBudget)
			}
		case JobTypeHourly:
			day.HourlyCount++
		}
		tier := string(row.Tier)
		if tier == "" {
			tier = "unknown"
		}
		day.TierBreakdown[tier]++
	}

	trends := make([]DailyTrend, 0, len(byDay))
	for date, day := range byDay {
		if vals := budgets[date]; len(vals) > 0 {
			avg := round2(mean(vals))
			day.AvgFixedBudget = &avg
		}
		trends = append(trends, *day)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends, nil
}

// ProposalVelocity estimates proposals-per-hour per job from its band and
// age, and aggregates averages by tier and job type.
func (s *Service) ProposalVelocity(ctx context.Context) (*ProposalStats, error) {
	rows, err := s.stats.ProposalRows(ctx, 500)
	if err != nil {
		return nil, fmt.Errorf("proposal rows: %w", err)
	}

	now := time.Now().UTC()
	stats := &ProposalStats{
		AvgVelocityByTier:    map[string]float64{},
		AvgVelocityByType:    map[string]float64{},
		ProposalDistribution: map[string]int{},
	}

	type bucket struct {
		count int
		total float64
	}
	byTier := map[string]*bucket{}
	byType := map[string]*bucket{}

	var all []JobVelocity
	for _, row := range rows {
		band := row.ProposalsBand
		if band == "" {
			band = "Unknown"
		}
		stats.ProposalDistribution[band]++

		publishedAt := row.FirstSeenAt
		if publishedAt.IsZero() && row.CreatedOn != nil {
			publishedAt = *row.CreatedOn
		}
		hours := now.Sub(publishedAt).Hours()

		estimate := BandMidpoint(row.ProposalsBand)
		velocity := 0.0
		if hours > 0 {
			velocity = float64(estimate) / hours
		}

		jv := JobVelocity{
			ID:                  row.ID,
			Title:               row.Title,
			Tier:                row.Tier,
			JobType:             row.JobType,
			ProposalsBand:       row.ProposalsBand,
			ProposalsEstimate:   estimate,
			HoursSincePublished: round1(hours),
			Velocity:            round2(velocity),
			SnapshotCount:       row.SnapshotCount,
		}
		all = append(all, jv)

		if jv.Velocity > 0 {
			tier := string(row.Tier)
			if tier == "" {
				tier = "unknown"
			}
			if byTier[tier] == nil {
				byTier[tier] = &bucket{}
			}
			byTier[tier].count++
			byTier[tier].total += jv.Velocity

			jobType := string(row.JobType)
			if jobType == "" {
				jobType = "unknown"
			}
			if byType[jobType] == nil {
				byType[jobType] = &bucket{}
			}
			byType[jobType].count++
			byType[jobType].total += jv.Velocity
		}
	}

	for tier, b := range byTier {
		stats.AvgVelocityByTier[tier] = round2(b.total / float64(b.count))
	}
	for jobType, b := range byType {
		stats.AvgVelocityByType[jobType] = round2(b.total / float64(b.count))
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Velocity > all[j].Velocity })
	for _, jv := range all {
		if jv.Velocity <= 0 || len(stats.HottestJobs) == 20 {
			break
		}
		stats.HottestJobs = append(stats.HottestJobs, jv)
	}

	return stats, nil
}

// RunDailyRollup aggregates today's postings into the daily_stats table.
func (s *Service) RunDailyRollup(ctx context.Context) error {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	overview, err := s.stats.Overview(ctx)
	if err != nil {
		return fmt.Errorf("overview: %w", err)
	}

	rows, err := s.stats.TrendRows(ctx, midnight)
	if err != nil {
		return fmt.Errorf("trend rows: %w", err)
	}

	stats := &DailyStats{
		Date:          now.Format("2006-01-02"),
		TotalJobs:     overview.TotalJobs,
		NewJobs:       len(rows),
		TierBreakdown: map[string]int{},
		TopSkills:     map[string]int{},
	}

	var budgets []float64
	for _, row := range rows {
		tier := string(row.Tier)
		if tier == "" {
			tier = "unknown"
		}
		stats.TierBreakdown[tier]++
		if row.JobType == JobTypeFixed && row.FixedBudget != nil {
			budgets = append(budgets, *row.FixedBudget)
		}
	}
	if len(budgets) > 0 {
		avg := round2(mean(budgets))
		stats.AvgFixedBudget = &avg
	}

	skills, err := s.stats.TopSkills(ctx, 10)
	if err != nil {
		return fmt.Errorf("top skills: %w", err)
	}
	for _, sk := range skills {
		stats.TopSkills[sk.Label] = sk.JobCount
	}

	if err := s.stats.SaveDailyStats(ctx, stats); err != nil {
		return fmt.Errorf("save daily stats: %w", err)
	}

	s.logger.Info("daily rollup saved", "date", stats.Date, "new_jobs", stats.NewJobs)
	return nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
