package upwork

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Dalvae/upworkinsights/internal/domain"
)

// Normalize maps one raw job into the canonical record plus its skills. It
// never fails: the source feed is uncontrolled, so every unparseable field
// degrades to a documented fallback instead of aborting the batch.
func Normalize(raw *RawJob, sourceURL, searchQuery string) domain.IncomingJob {
	jobType := parseJobType(raw.Type)

	job := domain.Job{
		Ciphertext:        raw.Ciphertext,
		SourceUID:         string(raw.UID),
		Title:             CleanText(raw.Title),
		Description:       CleanText(raw.Description),
		CreatedOn:         parseTimestamp(raw.CreatedOn),
		PublishedOn:       parseTimestamp(raw.PublishedOn),
		JobType:           jobType,
		Duration:          raw.DurationLabel,
		Engagement:        ParseEngagement(raw.Engagement),
		Tier:              ParseTier(raw.TierText),
		ProposalsBand:     ParseProposalsBand(raw.ProposalsTier),
		IsPremium:         raw.Premium,
		FreelancersToHire: raw.FreelancersToHire,
		IsApplied:         raw.IsApplied,
		SourceURL:         sourceURL,
		SearchQuery:       searchQuery,
		JobStatus:         raw.Status,
	}

	if job.FreelancersToHire < 1 {
		job.FreelancersToHire = 1
	}

	// Budgets are mutually exclusive by job type; cross-type values from a
	// confused payload are dropped rather than persisted.
	switch jobType {
	case domain.JobTypeFixed:
		if raw.Amount != nil && raw.Amount.Amount > 0 {
			amount := raw.Amount.Amount
			job.FixedBudget = &amount
		}
	case domain.JobTypeHourly:
		if raw.HourlyBudget != nil {
			if raw.HourlyBudget.Min > 0 {
				min := raw.HourlyBudget.Min
				job.HourlyMin = &min
			}
			if raw.HourlyBudget.Max > 0 {
				max := raw.HourlyBudget.Max
				job.HourlyMax = &max
			}
		}
	}

	stats := domain.ClientStats{
		TotalAssignments:  raw.ClientTotalAssignments,
		JobsWithHires:     raw.ClientTotalJobsWithHires,
		ActiveAssignments: raw.ClientActiveAssignments,
		OpenJobs:          raw.ClientOpenJobs,
	}

	if raw.Client != nil {
		job.ClientCountry = CanonicalCountry(raw.Client.Location.Country)
		job.ClientPaymentVerified = raw.Client.IsPaymentVerified
		job.ClientTotalSpent = ParseMoney(string(raw.Client.TotalSpent))
		job.ClientTotalReviews = raw.Client.TotalReviews
		if raw.Client.TotalFeedback > 0 {
			feedback := raw.Client.TotalFeedback
			job.ClientTotalFeedback = &feedback
		}

		stats.PaymentVerified = raw.Client.IsPaymentVerified
		stats.TotalReviews = raw.Client.TotalReviews
		stats.TotalFeedback = raw.Client.TotalFeedback
		if job.ClientTotalSpent != nil {
			stats.TotalSpent = *job.ClientTotalSpent
		}
	}

	job.ClientQualityScore = domain.ComputeClientScore(stats)

	if raw.ClientActivity != nil {
		job.TotalHired = raw.ClientActivity.TotalHired
		job.TotalApplicants = raw.ClientActivity.TotalApplicants
		job.TotalInvited = raw.ClientActivity.TotalInvitedToInterview
		job.InvitationsSent = raw.ClientActivity.InvitationsSent
		job.UnansweredInvites = raw.ClientActivity.UnansweredInvites
		job.LastBuyerActivity = raw.ClientActivity.LastBuyerActivity
	}

	return domain.IncomingJob{Job: job, Skills: extractSkills(raw)}
}

// extractSkills maps skill attributes, preferring the pretty name over the
// ontology label.
func extractSkills(raw *RawJob) []domain.SkillRef {
	if len(raw.Attrs) == 0 {
		return nil
	}
	skills := make([]domain.SkillRef, 0, len(raw.Attrs))
	for _, attr := range raw.Attrs {
		label := attr.PrettyName
		if label == "" {
			label = attr.PrefLabel
		}
		skills = append(skills, domain.SkillRef{
			UID:         string(attr.UID),
			Label:       label,
			Highlighted: attr.Highlighted,
		})
	}
	return skills
}

func parseJobType(code TypeCode) domain.JobType {
	switch code {
	case typeCodeHourly:
		return domain.JobTypeHourly
	default:
		// 1 is fixed; unrecognized codes fall back to fixed as well.
		return domain.JobTypeFixed
	}
}

// ParseTier maps the free-text tier label onto the canonical tiers,
// defaulting to entry.
func ParseTier(text string) domain.Tier {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "expert"):
		return domain.TierExpert
	case strings.Contains(lower, "intermediate"):
		return domain.TierIntermediate
	default:
		return domain.TierEntry
	}
}

var engagementSeparators = strings.NewReplacer(" ", "_", "-", "_")

// ParseEngagement maps the free-text workload label onto full_time /
// part_time. Anything else means unknown.
func ParseEngagement(text string) domain.Engagement {
	if text == "" {
		return ""
	}
	lower := engagementSeparators.Replace(strings.ToLower(text))
	switch {
	case strings.Contains(lower, "full"):
		return domain.EngagementFullTime
	case strings.Contains(lower, "part"):
		return domain.EngagementPartTime
	default:
		return ""
	}
}

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	moneyJunk      = regexp.MustCompile(`[^0-9.]`)
)

// CleanText strips HTML tags and decodes entities from title/description
// text.
func CleanText(text string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTagPattern.ReplaceAllString(text, "")))
}

// ParseMoney parses a possibly currency-formatted amount like "$12,000.50".
// Unparsable input yields nil.
func ParseMoney(text string) *float64 {
	cleaned := moneyJunk.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value == 0 {
		return nil
	}
	return &value
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp parses the site's timestamp strings leniently; unparsable
// values yield nil rather than a zero time.
func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
