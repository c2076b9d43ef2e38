package upwork

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Dalvae/upworkinsights/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHourlyJob(t *testing.T) {
	raw := &RawJob{
		UID:          "1",
		Ciphertext:   "~abc",
		Title:        "<b>Build</b> API",
		Type:         typeCodeHourly,
		HourlyBudget: &HourlyBudget{Min: 20, Max: 40},
		Client: &RawClient{
			IsPaymentVerified: true,
			TotalSpent:        "$12,000",
			TotalReviews:      25,
			TotalFeedback:     4.8,
		},
	}

	result := Normalize(raw, "https://example.com/search", "api")
	job := result.Job

	assert.Equal(t, "~abc", job.Ciphertext)
	assert.Equal(t, "Build API", job.Title)
	assert.Equal(t, domain.JobTypeHourly, job.JobType)
	require.NotNil(t, job.HourlyMin)
	require.NotNil(t, job.HourlyMax)
	assert.Equal(t, 20.0, *job.HourlyMin)
	assert.Equal(t, 40.0, *job.HourlyMax)
	assert.Nil(t, job.FixedBudget)
	require.NotNil(t, job.ClientTotalSpent)
	assert.Equal(t, 12000.0, *job.ClientTotalSpent)
	assert.InDelta(t, 7.9, job.ClientQualityScore, 1e-9)
	assert.Equal(t, "https://example.com/search", job.SourceURL)
	assert.Equal(t, "api", job.SearchQuery)
	assert.Equal(t, 1, job.FreelancersToHire)
}

func TestNormalizeBudgetExclusivity(t *testing.T) {
	// A confused payload carrying both budget shapes must not leak
	// cross-type values into the canonical record.
	hourly := Normalize(&RawJob{
		Ciphertext:   "~h",
		Type:         typeCodeHourly,
		Amount:       &Amount{Amount: 500},
		HourlyBudget: &HourlyBudget{Min: 10, Max: 20},
	}, "", "")
	assert.Nil(t, hourly.Job.FixedBudget)
	assert.NotNil(t, hourly.Job.HourlyMin)
	assert.NotNil(t, hourly.Job.HourlyMax)

	fixed := Normalize(&RawJob{
		Ciphertext:   "~f",
		Type:         typeCodeFixed,
		Amount:       &Amount{Amount: 500},
		HourlyBudget: &HourlyBudget{Min: 10, Max: 20},
	}, "", "")
	assert.NotNil(t, fixed.Job.FixedBudget)
	assert.Nil(t, fixed.Job.HourlyMin)
	assert.Nil(t, fixed.Job.HourlyMax)
}

func TestNormalizeNeverFails(t *testing.T) {
	result := Normalize(&RawJob{Ciphertext: "~bare"}, "", "")
	job := result.Job

	assert.Equal(t, domain.JobTypeFixed, job.JobType)
	assert.Equal(t, domain.TierEntry, job.Tier)
	assert.Equal(t, 1, job.FreelancersToHire)
	assert.Nil(t, job.CreatedOn)
	assert.Nil(t, job.FixedBudget)
	assert.Zero(t, job.ClientQualityScore)
	assert.Empty(t, result.Skills)
}

func TestNormalizeProposalsBandChain(t *testing.T) {
	result := Normalize(&RawJob{Ciphertext: "~x", ProposalsTier: "5to10"}, "", "")
	assert.Equal(t, "5 to 10", result.Job.ProposalsBand)
	assert.Equal(t, 7, domain.BandMidpoint(result.Job.ProposalsBand))
}

func TestNormalizeSkills(t *testing.T) {
	result := Normalize(&RawJob{
		Ciphertext: "~x",
		Attrs: []RawSkillAttr{
			{UID: "123", PrefLabel: "golang", PrettyName: "Go", Highlighted: true},
			{UID: "456", PrefLabel: "docker"},
		},
	}, "", "")

	require.Len(t, result.Skills, 2)
	assert.Equal(t, domain.SkillRef{UID: "123", Label: "Go", Highlighted: true}, result.Skills[0])
	assert.Equal(t, domain.SkillRef{UID: "456", Label: "docker"}, result.Skills[1])
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, domain.TierExpert, ParseTier("Expert"))
	assert.Equal(t, domain.TierExpert, ParseTier("ExpertLevel"))
	assert.Equal(t, domain.TierIntermediate, ParseTier("intermediate"))
	assert.Equal(t, domain.TierEntry, ParseTier("Entry Level"))
	assert.Equal(t, domain.TierEntry, ParseTier(""))
	assert.Equal(t, domain.TierEntry, ParseTier("whatever"))
}

func TestParseEngagement(t *testing.T) {
	assert.Equal(t, domain.EngagementFullTime, ParseEngagement("Full Time"))
	assert.Equal(t, domain.EngagementFullTime, ParseEngagement("full-time"))
	assert.Equal(t, domain.EngagementPartTime, ParseEngagement("Part-time"))
	assert.Equal(t, domain.Engagement(""), ParseEngagement(""))
	assert.Equal(t, domain.Engagement(""), ParseEngagement("As needed"))
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>Build</b> API", "Build API"},
		{"  plain  ", "plain"},
		{"A &amp; B &lt;tag&gt; &quot;q&quot; &#39;s&#39;", `A & B <tag> "q" 's'`},
		{"<div class='x'><p>nested</p></div>", "nested"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in))
	}
}

func TestParseMoney(t *testing.T) {
	v := ParseMoney("$12,000")
	require.NotNil(t, v)
	assert.Equal(t, 12000.0, *v)

	v = ParseMoney("1500.50")
	require.NotNil(t, v)
	assert.Equal(t, 1500.5, *v)

	assert.Nil(t, ParseMoney(""))
	assert.Nil(t, ParseMoney("N/A"))
	assert.Nil(t, ParseMoney("$0"))
	assert.Nil(t, ParseMoney("1.2.3"))
}

func TestCanonicalCountry(t *testing.T) {
	assert.Equal(t, "United States", CanonicalCountry("US"))
	assert.Equal(t, "United States", CanonicalCountry("usa"))
	assert.Equal(t, "United Kingdom", CanonicalCountry(" GB "))
	assert.Equal(t, "Germany", CanonicalCountry("Deutschland"))
	assert.Equal(t, "Atlantis", CanonicalCountry(" Atlantis "), "unknown passes through trimmed")
	assert.Equal(t, "", CanonicalCountry(""))
}

func TestParseProposalsBand(t *testing.T) {
	assert.Equal(t, "Less than 5", ParseProposalsBand("lessThan5"))
	assert.Equal(t, "5 to 10", ParseProposalsBand("5to10"))
	assert.Equal(t, "10 to 15", ParseProposalsBand("10to15"))
	assert.Equal(t, "50+", ParseProposalsBand("50plus"))
	assert.Equal(t, "5 to 10", ParseProposalsBand("5 to 10"), "canonical input passes through")
	assert.Equal(t, "mystery", ParseProposalsBand("mystery"))
}

func TestParseTimestampLenient(t *testing.T) {
	ts := parseTimestamp("2025-04-01T10:30:00.000Z")
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC), *ts)

	ts = parseTimestamp("2025-04-01")
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *ts)

	assert.Nil(t, parseTimestamp(""))
	assert.Nil(t, parseTimestamp("yesterday"))
}

func TestFlexStringDecoding(t *testing.T) {
	var raw RawJob
	require.NoError(t, json.Unmarshal([]byte(`{"uid": 123456, "ciphertext": "~x"}`), &raw))
	assert.Equal(t, FlexString("123456"), raw.UID)

	require.NoError(t, json.Unmarshal([]byte(`{"uid": "789", "ciphertext": "~x"}`), &raw))
	assert.Equal(t, FlexString("789"), raw.UID)

	require.NoError(t, json.Unmarshal([]byte(`{"uid": null, "ciphertext": "~x"}`), &raw))
	assert.Equal(t, FlexString(""), raw.UID)
}

func TestTypeCodeDecoding(t *testing.T) {
	tests := []struct {
		in   string
		want TypeCode
	}{
		{`2`, typeCodeHourly},
		{`1`, typeCodeFixed},
		{`"HOURLY"`, typeCodeHourly},
		{`"FIXED"`, typeCodeFixed},
		{`"FIXED_PRICE"`, typeCodeFixed},
		{`"2"`, typeCodeHourly},
		{`"nonsense"`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var code TypeCode
		require.NoError(t, json.Unmarshal([]byte(tt.in), &code), tt.in)
		assert.Equal(t, tt.want, code, tt.in)
	}
}
