package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dalvae/upworkinsights/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleJob(ciphertext string) *domain.Job {
	budget := 500.0
	return &domain.Job{
		Ciphertext:        ciphertext,
		Title:             "Build a thing",
		Description:       "Description",
		JobType:           domain.JobTypeFixed,
		FixedBudget:       &budget,
		Tier:              domain.TierIntermediate,
		ProposalsBand:     "Less than 5",
		FreelancersToHire: 1,
		ClientCountry:     "Germany",
		LastSeenAt:        time.Now().UTC(),
	}
}

func TestUpsertJobInsertThenUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	job := sampleJob("~abc")
	id, inserted, err := repo.UpsertJob(ctx, job)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(1), id)

	firstSeen := job.FirstSeenAt

	update := sampleJob("~abc")
	update.Title = "Build a better thing"
	update.ProposalsBand = "5 to 10"
	update.FirstSeenAt = time.Time{}
	update.LastSeenAt = time.Now().UTC().Add(time.Hour)

	id2, inserted2, err := repo.UpsertJob(ctx, update)
	require.NoError(t, err)
	assert.False(t, inserted2)
	assert.Equal(t, id, id2)

	got, err := repo.GetJob(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Build a better thing", got.Title)
	assert.Equal(t, "5 to 10", got.ProposalsBand)
	assert.WithinDuration(t, firstSeen, got.FirstSeenAt, time.Second, "first_seen_at survives updates")
	require.NotNil(t, got.FixedBudget)
	assert.Equal(t, 500.0, *got.FixedBudget)
	assert.Nil(t, got.HourlyMin)
}

func TestGetJobSignals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	signals, err := repo.GetJobSignals(ctx, "~missing")
	require.NoError(t, err)
	assert.Nil(t, signals)

	_, _, err = repo.UpsertJob(ctx, sampleJob("~abc"))
	require.NoError(t, err)

	signals, err = repo.GetJobSignals(ctx, "~abc")
	require.NoError(t, err)
	require.NotNil(t, signals)
	assert.Equal(t, "Less than 5", signals.ProposalsBand)
	assert.Equal(t, 1, signals.FreelancersToHire)
	assert.False(t, signals.IsApplied)
}

func TestSnapshotsOrderedByTime(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _, err := repo.UpsertJob(ctx, sampleJob("~abc"))
	require.NoError(t, err)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, band := range []string{"Less than 5", "5 to 10", "10 to 15"} {
		err := repo.InsertSnapshot(ctx, &domain.Snapshot{
			JobID:             id,
			SnapshotAt:        base.Add(time.Duration(i) * time.Hour),
			ProposalsBand:     band,
			FreelancersToHire: 1,
		})
		require.NoError(t, err)
	}

	snaps, err := repo.ListSnapshots(ctx, id)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "Less than 5", snaps[0].ProposalsBand)
	assert.Equal(t, "10 to 15", snaps[2].ProposalsBand)
	assert.True(t, snaps[0].SnapshotAt.Before(snaps[2].SnapshotAt))
}

func TestListJobsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	expert := sampleJob("~expert")
	expert.Tier = domain.TierExpert
	expert.Title = "Kubernetes migration"
	_, _, err := repo.UpsertJob(ctx, expert)
	require.NoError(t, err)

	entry := sampleJob("~entry")
	entry.Tier = domain.TierEntry
	_, _, err = repo.UpsertJob(ctx, entry)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertSkill(ctx, "s1", "Kubernetes"))
	require.NoError(t, repo.LinkJobSkill(ctx, expert.ID, "s1", true))

	jobs, total, err := repo.ListJobs(ctx, domain.JobFilters{Tier: domain.TierExpert, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	assert.Equal(t, "~expert", jobs[0].Ciphertext)
	require.Len(t, jobs[0].Skills, 1)
	assert.Equal(t, "Kubernetes", jobs[0].Skills[0].Label)
	assert.True(t, jobs[0].Skills[0].Highlighted)

	_, total, err = repo.ListJobs(ctx, domain.JobFilters{Skill: "s1", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = repo.ListJobs(ctx, domain.JobFilters{Query: "kubernetes", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = repo.ListJobs(ctx, domain.JobFilters{Query: "100%", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total, "LIKE wildcards in the query are escaped")

	jobs, total, err = repo.ListJobs(ctx, domain.JobFilters{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, jobs, 1)
}

func TestProfileRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	profile, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	rate := 50.0
	saved, err := repo.SaveProfile(ctx, &domain.UserProfile{
		Skills:         []string{"Go", "Docker"},
		HourlyRate:     &rate,
		PreferredTiers: []domain.Tier{domain.TierExpert},
		APIKey:         "sk-123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)

	got, err := repo.GetProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"Go", "Docker"}, got.Skills)
	assert.Equal(t, []domain.Tier{domain.TierExpert}, got.PreferredTiers)
	assert.Equal(t, "sk-123", got.APIKey)

	// Saving again replaces, never duplicates.
	saved, err = repo.SaveProfile(ctx, &domain.UserProfile{Skills: []string{"Rust"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)

	got, err = repo.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust"}, got.Skills)
	assert.Empty(t, got.APIKey)
}

func TestOverviewAndBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fixed := sampleJob("~fixed")
	_, _, err := repo.UpsertJob(ctx, fixed)
	require.NoError(t, err)

	hourly := sampleJob("~hourly")
	hourly.JobType = domain.JobTypeHourly
	hourly.FixedBudget = nil
	min, max := 20.0, 40.0
	hourly.HourlyMin = &min
	hourly.HourlyMax = &max
	_, _, err = repo.UpsertJob(ctx, hourly)
	require.NoError(t, err)

	overview, err := repo.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.TotalJobs)
	assert.Equal(t, 1, overview.FixedCount)
	assert.Equal(t, 1, overview.HourlyCount)
	assert.Equal(t, 2, overview.JobsToday)
	assert.Equal(t, 500.0, overview.AvgFixedBudget)

	fixedBudgets, err := repo.FixedBudgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{500}, fixedBudgets)

	hourlyBudgets, err := repo.HourlyMaxBudgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{40}, hourlyBudgets)
}
