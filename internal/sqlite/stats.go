package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dalvae/upworkinsights/internal/domain"
)

// Overview computes the dashboard headline aggregate.
func (r *Repository) Overview(ctx context.Context) (*domain.OverviewStats, error) {
	stats := &domain.OverviewStats{TierBreakdown: map[string]int{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN job_type = 'fixed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN job_type = 'hourly' THEN 1 ELSE 0 END), 0),
		       COALESCE(ROUND(AVG(CASE WHEN job_type = 'fixed' THEN fixed_budget END), 2), 0)
		FROM jobs`,
	).Scan(&stats.TotalJobs, &stats.FixedCount, &stats.HourlyCount, &stats.AvgFixedBudget)
	if err != nil {
		return nil, fmt.Errorf("overview counts: %w", err)
	}

	today := time.Now().UTC().Format("2006-01-02")
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE first_seen_at >= ?`, today,
	).Scan(&stats.JobsToday)
	if err != nil {
		return nil, fmt.Errorf("jobs today: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT tier, COUNT(*) FROM jobs GROUP BY tier`)
	if err != nil {
		return nil, fmt.Errorf("tier breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tier  string
			count int
		)
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, err
		}
		if tier == "" {
			tier = "unknown"
		}
		stats.TierBreakdown[tier] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	countryRows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(client_country, ''), 'Unknown'), COUNT(*)
		FROM jobs GROUP BY 1 ORDER BY 2 DESC LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("top countries: %w", err)
	}
	defer countryRows.Close()
	for countryRows.Next() {
		var c domain.CountryCount
		if err := countryRows.Scan(&c.Country, &c.Count); err != nil {
			return nil, err
		}
		stats.TopCountries = append(stats.TopCountries, c)
	}
	if err := countryRows.Err(); err != nil {
		return nil, err
	}

	stats.TopSkills, err = r.TopSkills(ctx, 15)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// TopSkills returns the most-referenced skills. The job count is derived
// from the join table here rather than maintained by the ingest engine.
func (r *Repository) TopSkills(ctx context.Context, limit int) ([]domain.SkillCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.uid, s.label, COUNT(js.job_id)
		FROM skills s
		LEFT JOIN job_skills js ON js.skill_uid = s.uid
		GROUP BY s.uid, s.label
		ORDER BY COUNT(js.job_id) DESC, s.label ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top skills: %w", err)
	}
	defer rows.Close()

	var skills []domain.SkillCount
	for rows.Next() {
		var s domain.SkillCount
		if err := rows.Scan(&s.UID, &s.Label, &s.JobCount); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// FixedBudgets returns every known fixed-price budget.
func (r *Repository) FixedBudgets(ctx context.Context) ([]float64, error) {
	return r.queryFloats(ctx,
		`SELECT fixed_budget FROM jobs WHERE job_type = 'fixed' AND fixed_budget IS NOT NULL`)
}

// HourlyMaxBudgets returns every known hourly budget ceiling.
func (r *Repository) HourlyMaxBudgets(ctx context.Context) ([]float64, error) {
	return r.queryFloats(ctx,
		`SELECT hourly_max FROM jobs WHERE job_type = 'hourly' AND hourly_max IS NOT NULL`)
}

func (r *Repository) queryFloats(ctx context.Context, query string) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// TrendRows returns the minimal projection of jobs created since the given
// time, ordered ascending.
func (r *Repository) TrendRows(ctx context.Context, since time.Time) ([]domain.TrendRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT created_on, job_type, tier, fixed_budget
		FROM jobs
		WHERE created_on IS NOT NULL AND created_on >= ?
		ORDER BY created_on ASC`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("trend rows: %w", err)
	}
	defer rows.Close()

	var result []domain.TrendRow
	for rows.Next() {
		var (
			row       domain.TrendRow
			createdOn string
		)
		if err := rows.Scan(&createdOn, &row.JobType, &row.Tier, &row.FixedBudget); err != nil {
			return nil, err
		}
		row.CreatedOn = parseStoredTime(createdOn)
		result = append(result, row)
	}
	return result, rows.Err()
}

// ProposalRows returns the newest jobs with their snapshot counts for
// velocity analytics.
func (r *Repository) ProposalRows(ctx context.Context, limit int) ([]domain.ProposalRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT j.id, j.title, j.tier, j.job_type, COALESCE(j.proposals_band, ''),
		       j.created_on, j.first_seen_at,
		       (SELECT COUNT(*) FROM job_snapshots s WHERE s.job_id = j.id)
		FROM jobs j
		ORDER BY j.created_on DESC, j.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("proposal rows: %w", err)
	}
	defer rows.Close()

	var result []domain.ProposalRow
	for rows.Next() {
		var (
			row       domain.ProposalRow
			createdOn sql.NullString
			firstSeen string
		)
		if err := rows.Scan(&row.ID, &row.Title, &row.Tier, &row.JobType,
			&row.ProposalsBand, &createdOn, &firstSeen, &row.SnapshotCount); err != nil {
			return nil, err
		}
		row.CreatedOn = parseStoredTimePtr(createdOn)
		row.FirstSeenAt = parseStoredTime(firstSeen)
		result = append(result, row)
	}
	return result, rows.Err()
}

// SaveDailyStats upserts the rollup row for its date.
func (r *Repository) SaveDailyStats(ctx context.Context, stats *domain.DailyStats) error {
	topSkills, err := json.Marshal(stats.TopSkills)
	if err != nil {
		return fmt.Errorf("marshal top skills: %w", err)
	}
	tierBreakdown, err := json.Marshal(stats.TierBreakdown)
	if err != nil {
		return fmt.Errorf("marshal tier breakdown: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO daily_stats (date, total_jobs, new_jobs, avg_fixed_budget, top_skills, tier_breakdown)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			total_jobs = excluded.total_jobs,
			new_jobs = excluded.new_jobs,
			avg_fixed_budget = excluded.avg_fixed_budget,
			top_skills = excluded.top_skills,
			tier_breakdown = excluded.tier_breakdown`,
		stats.Date, stats.TotalJobs, stats.NewJobs, stats.AvgFixedBudget,
		string(topSkills), string(tierBreakdown),
	)
	return err
}
