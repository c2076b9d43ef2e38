// Package sqlite implements the domain repository ports on an embedded
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Dalvae/upworkinsights/internal/domain"
	_ "modernc.org/sqlite"
)

// Repository implements domain.JobRepository, domain.ProfileRepository, and
// domain.StatsRepository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the SQLite database at path,
// verifies the connection, and applies the schema. The caller should call
// Close when the repository is no longer needed.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The driver serializes writes; a single connection avoids SQLITE_BUSY
	// churn under overlapping ingest requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// GetJobSignals retrieves the stored competitive signals for a ciphertext.
// Returns nil when the job has never been seen.
func (r *Repository) GetJobSignals(ctx context.Context, ciphertext string) (*domain.JobSignals, error) {
	var (
		s    domain.JobSignals
		band sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, proposals_band, freelancers_to_hire, is_applied
		FROM jobs WHERE ciphertext = ?`, ciphertext,
	).Scan(&s.JobID, &band, &s.FreelancersToHire, &s.IsApplied)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.ProposalsBand = band.String
	return &s, nil
}

// UpsertJob inserts a job or fully replaces the mutable fields of the
// existing row with the same ciphertext. first_seen_at is set only on
// insert. The unique constraint on ciphertext is the sole concurrency
// primitive: overlapping ingests resolve last-write-wins.
func (r *Repository) UpsertJob(ctx context.Context, job *domain.Job) (int64, bool, error) {
	var existingID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM jobs WHERE ciphertext = ?`, job.Ciphertext,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return 0, false, err
	}
	inserted := err == sql.ErrNoRows

	if job.FirstSeenAt.IsZero() {
		job.FirstSeenAt = job.LastSeenAt
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO jobs (
			ciphertext, source_uid, title, description, created_on, published_on,
			first_seen_at, last_seen_at, job_type, duration, engagement,
			fixed_budget, hourly_min, hourly_max, tier, proposals_band,
			is_premium, freelancers_to_hire, is_applied,
			client_country, client_payment_verified, client_total_spent,
			client_total_reviews, client_total_feedback, client_quality_score,
			source_url, search_query, job_status,
			total_hired, total_applicants, total_invited,
			invitations_sent, unanswered_invites, last_buyer_activity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ciphertext) DO UPDATE SET
			source_uid = excluded.source_uid,
			title = excluded.title,
			description = excluded.description,
			created_on = excluded.created_on,
			published_on = excluded.published_on,
			last_seen_at = excluded.last_seen_at,
			job_type = excluded.job_type,
			duration = excluded.duration,
			engagement = excluded.engagement,
			fixed_budget = excluded.fixed_budget,
			hourly_min = excluded.hourly_min,
			hourly_max = excluded.hourly_max,
			tier = excluded.tier,
			proposals_band = excluded.proposals_band,
			is_premium = excluded.is_premium,
			freelancers_to_hire = excluded.freelancers_to_hire,
			is_applied = excluded.is_applied,
			client_country = excluded.client_country,
			client_payment_verified = excluded.client_payment_verified,
			client_total_spent = excluded.client_total_spent,
			client_total_reviews = excluded.client_total_reviews,
			client_total_feedback = excluded.client_total_feedback,
			client_quality_score = excluded.client_quality_score,
			source_url = excluded.source_url,
			search_query = excluded.search_query,
			job_status = excluded.job_status,
			total_hired = excluded.total_hired,
			total_applicants = excluded.total_applicants,
			total_invited = excluded.total_invited,
			invitations_sent = excluded.invitations_sent,
			unanswered_invites = excluded.unanswered_invites,
			last_buyer_activity = excluded.last_buyer_activity
		RETURNING id`,
		job.Ciphertext, nullString(job.SourceUID), job.Title, job.Description,
		nullTime(job.CreatedOn), nullTime(job.PublishedOn),
		formatTime(job.FirstSeenAt), formatTime(job.LastSeenAt),
		string(job.JobType), nullString(job.Duration), nullString(string(job.Engagement)),
		job.FixedBudget, job.HourlyMin, job.HourlyMax,
		string(job.Tier), nullString(job.ProposalsBand),
		job.IsPremium, job.FreelancersToHire, job.IsApplied,
		nullString(job.ClientCountry), job.ClientPaymentVerified, job.ClientTotalSpent,
		job.ClientTotalReviews, job.ClientTotalFeedback, job.ClientQualityScore,
		nullString(job.SourceURL), nullString(job.SearchQuery), nullString(job.JobStatus),
		job.TotalHired, job.TotalApplicants, job.TotalInvited,
		job.InvitationsSent, job.UnansweredInvites, nullString(job.LastBuyerActivity),
	).Scan(&id)
	if err != nil {
		return 0, false, err
	}

	job.ID = id
	return id, inserted, nil
}

// InsertSnapshot appends one snapshot row.
func (r *Repository) InsertSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO job_snapshots (
			job_id, snapshot_at, proposals_band, freelancers_to_hire,
			is_applied, total_hired, total_applicants
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.JobID, formatTime(snap.SnapshotAt), nullString(snap.ProposalsBand),
		snap.FreelancersToHire, snap.IsApplied, snap.TotalHired, snap.TotalApplicants,
	)
	return err
}

// UpsertSkill inserts or relabels a skill catalog entry.
func (r *Repository) UpsertSkill(ctx context.Context, uid, label string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO skills (uid, label) VALUES (?, ?)
		ON CONFLICT (uid) DO UPDATE SET label = excluded.label`,
		uid, label,
	)
	return err
}

// LinkJobSkill upserts the (job, skill) join row.
func (r *Repository) LinkJobSkill(ctx context.Context, jobID int64, skillUID string, highlighted bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO job_skills (job_id, skill_uid, is_highlighted) VALUES (?, ?, ?)
		ON CONFLICT (job_id, skill_uid) DO UPDATE SET is_highlighted = excluded.is_highlighted`,
		jobID, skillUID, highlighted,
	)
	return err
}

// Columns selected for full job rows, kept in scanJob order.
const jobColumns = `
	id, ciphertext, source_uid, title, description, created_on, published_on,
	first_seen_at, last_seen_at, job_type, duration, engagement,
	fixed_budget, hourly_min, hourly_max, tier, proposals_band,
	is_premium, freelancers_to_hire, is_applied,
	client_country, client_payment_verified, client_total_spent,
	client_total_reviews, client_total_feedback, client_quality_score,
	source_url, search_query, job_status,
	total_hired, total_applicants, total_invited,
	invitations_sent, unanswered_invites, last_buyer_activity`

var sortColumns = map[string]string{
	"created_on":           "created_on",
	"published_on":         "published_on",
	"first_seen_at":        "first_seen_at",
	"tier":                 "tier",
	"job_type":             "job_type",
	"client_quality_score": "client_quality_score",
	"fixed_budget":         "fixed_budget",
	"hourly_min":           "hourly_min",
	"hourly_max":           "hourly_max",
	"proposals_band":       "proposals_band",
}

// ListJobs returns a filtered page plus the total match count.
func (r *Repository) ListJobs(ctx context.Context, f domain.JobFilters) ([]domain.JobWithSkills, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Tier != "" {
		where = append(where, "tier = ?")
		args = append(args, string(f.Tier))
	}
	if f.JobType != "" {
		where = append(where, "job_type = ?")
		args = append(args, string(f.JobType))
	}
	if f.Country != "" {
		where = append(where, "client_country = ?")
		args = append(args, f.Country)
	}
	if f.Skill != "" {
		where = append(where, "EXISTS (SELECT 1 FROM job_skills js WHERE js.job_id = jobs.id AND js.skill_uid = ?)")
		args = append(args, f.Skill)
	}
	if f.Query != "" {
		pattern := "%" + escapeLike(f.Query) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	sortCol, ok := sortColumns[f.Sort]
	if !ok {
		sortCol = "created_on"
	}
	direction := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		direction = "ASC"
	}

	query := "SELECT" + jobColumns + " FROM jobs" + clause +
		fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT ? OFFSET ?", sortCol, direction, direction)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachSkills(ctx, jobs); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// GetJob returns one job with skills, or nil if not found.
func (r *Repository) GetJob(ctx context.Context, id int64) (*domain.JobWithSkills, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT"+jobColumns+" FROM jobs WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	if err := r.attachSkills(ctx, jobs); err != nil {
		return nil, err
	}
	return &jobs[0], nil
}

// RecentJobs returns the most recently created jobs with skills.
func (r *Repository) RecentJobs(ctx context.Context, limit int) ([]domain.JobWithSkills, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT"+jobColumns+" FROM jobs ORDER BY created_on DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachSkills(ctx, jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListSnapshots returns a job's snapshots ordered by time ascending.
func (r *Repository) ListSnapshots(ctx context.Context, jobID int64) ([]domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_id, snapshot_at, proposals_band, freelancers_to_hire,
		       is_applied, total_hired, total_applicants
		FROM job_snapshots WHERE job_id = ? ORDER BY snapshot_at ASC, id ASC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		var (
			s    domain.Snapshot
			at   string
			band sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.JobID, &at, &band, &s.FreelancersToHire,
			&s.IsApplied, &s.TotalHired, &s.TotalApplicants); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.SnapshotAt = parseStoredTime(at)
		s.ProposalsBand = band.String
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func (r *Repository) attachSkills(ctx context.Context, jobs []domain.JobWithSkills) error {
	if len(jobs) == 0 {
		return nil
	}

	placeholders := make([]string, len(jobs))
	args := make([]any, len(jobs))
	index := make(map[int64]*domain.JobWithSkills, len(jobs))
	for i := range jobs {
		placeholders[i] = "?"
		args[i] = jobs[i].ID
		index[jobs[i].ID] = &jobs[i]
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT js.job_id, js.skill_uid, s.label, js.is_highlighted
		FROM job_skills js
		JOIN skills s ON s.uid = js.skill_uid
		WHERE js.job_id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return fmt.Errorf("query job skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			jobID int64
			skill domain.JobSkill
		)
		if err := rows.Scan(&jobID, &skill.SkillUID, &skill.Label, &skill.Highlighted); err != nil {
			return fmt.Errorf("scan job skill: %w", err)
		}
		if job := index[jobID]; job != nil {
			job.Skills = append(job.Skills, skill)
		}
	}
	return rows.Err()
}

func collectJobs(rows *sql.Rows) ([]domain.JobWithSkills, error) {
	var jobs []domain.JobWithSkills
	for rows.Next() {
		var (
			j                                            domain.Job
			sourceUID, createdOn, publishedOn            sql.NullString
			firstSeen, lastSeen                          string
			duration, engagement, band, country          sql.NullString
			sourceURL, searchQuery, status, lastActivity sql.NullString
		)
		err := rows.Scan(
			&j.ID, &j.Ciphertext, &sourceUID, &j.Title, &j.Description,
			&createdOn, &publishedOn, &firstSeen, &lastSeen,
			&j.JobType, &duration, &engagement,
			&j.FixedBudget, &j.HourlyMin, &j.HourlyMax,
			&j.Tier, &band,
			&j.IsPremium, &j.FreelancersToHire, &j.IsApplied,
			&country, &j.ClientPaymentVerified, &j.ClientTotalSpent,
			&j.ClientTotalReviews, &j.ClientTotalFeedback, &j.ClientQualityScore,
			&sourceURL, &searchQuery, &status,
			&j.TotalHired, &j.TotalApplicants, &j.TotalInvited,
			&j.InvitationsSent, &j.UnansweredInvites, &lastActivity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}

		j.SourceUID = sourceUID.String
		j.CreatedOn = parseStoredTimePtr(createdOn)
		j.PublishedOn = parseStoredTimePtr(publishedOn)
		j.FirstSeenAt = parseStoredTime(firstSeen)
		j.LastSeenAt = parseStoredTime(lastSeen)
		j.Duration = duration.String
		j.Engagement = domain.Engagement(engagement.String)
		j.ProposalsBand = band.String
		j.ClientCountry = country.String
		j.SourceURL = sourceURL.String
		j.SearchQuery = searchQuery.String
		j.JobStatus = status.String
		j.LastBuyerActivity = lastActivity.String

		jobs = append(jobs, domain.JobWithSkills{Job: j})
	}
	return jobs, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseStoredTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseStoredTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
