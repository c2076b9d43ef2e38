// Package upwork handles the site-native wire shapes: locating job records
// inside intercepted payloads and normalizing them into canonical records.
package upwork

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawJob is the site-native job representation as it appears in the search
// feed. Detail-page payloads are reshaped into the same struct by the
// extractor.
type RawJob struct {
	UID           FlexString     `json:"uid"`
	Ciphertext    string         `json:"ciphertext"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	CreatedOn     string         `json:"createdOn"`
	PublishedOn   string         `json:"publishedOn"`
	Type          TypeCode       `json:"type"`
	DurationLabel string         `json:"durationLabel"`
	Engagement    string         `json:"engagement"`
	Amount        *Amount        `json:"amount"`
	Client        *RawClient     `json:"client"`
	TierText      string         `json:"tierText"`
	IsApplied     bool           `json:"isApplied"`
	ProposalsTier string         `json:"proposalsTier"`
	Premium       bool           `json:"premium"`
	Attrs         []RawSkillAttr `json:"attrs"`
	HourlyBudget  *HourlyBudget  `json:"hourlyBudget"`

	FreelancersToHire int `json:"freelancersToHire"`

	// Detail-page only.
	Status                   string             `json:"status"`
	ClientActivity           *RawClientActivity `json:"clientActivity"`
	ClientTotalAssignments   *int               `json:"clientTotalAssignments"`
	ClientActiveAssignments  *int               `json:"clientActiveAssignments"`
	ClientTotalJobsWithHires *int               `json:"clientTotalJobsWithHires"`
	ClientOpenJobs           *int               `json:"clientOpenJobs"`
}

// Amount wraps a fixed-price budget.
type Amount struct {
	Amount float64 `json:"amount"`
}

// HourlyBudget is the posted hourly rate range.
type HourlyBudget struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// RawClient carries the hiring client's stats as present in feed payloads.
type RawClient struct {
	Location struct {
		Country string `json:"country"`
	} `json:"location"`
	IsPaymentVerified bool       `json:"isPaymentVerified"`
	TotalSpent        FlexString `json:"totalSpent"`
	TotalReviews      int        `json:"totalReviews"`
	TotalFeedback     float64    `json:"totalFeedback"`
}

// RawSkillAttr is one skill-attribute object attached to a job.
type RawSkillAttr struct {
	UID         FlexString `json:"uid"`
	PrefLabel   string     `json:"prefLabel"`
	PrettyName  string     `json:"prettyName"`
	Highlighted bool       `json:"highlighted"`
}

// RawClientActivity carries the hiring-activity counters from the detail
// page.
type RawClientActivity struct {
	TotalHired              *int   `json:"totalHired"`
	TotalApplicants         *int   `json:"totalApplicants"`
	TotalInvitedToInterview *int   `json:"totalInvitedToInterview"`
	InvitationsSent         *int   `json:"invitationsSent"`
	UnansweredInvites       *int   `json:"unansweredInvites"`
	LastBuyerActivity       string `json:"lastBuyerActivity"`
	NumberOfPositionsToHire int    `json:"numberOfPositionsToHire"`
}

// FlexString decodes from a JSON string or number. The site is not
// consistent about which one identifiers and money amounts arrive as.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// TypeCode is the enum-coded job type: 1 fixed, 2 hourly. It tolerates the
// detail page's string form ("FIXED"/"HOURLY") and numeric strings.
type TypeCode int

const (
	typeCodeFixed  TypeCode = 1
	typeCodeHourly TypeCode = 2
)

func (t *TypeCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "HOURLY":
			*t = typeCodeHourly
		case "FIXED", "FIXED_PRICE":
			*t = typeCodeFixed
		default:
			if n, err := strconv.Atoi(s); err == nil {
				*t = TypeCode(n)
			} else {
				*t = 0
			}
		}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		// Unrecognized encodings fall through to the normalizer's default.
		*t = 0
		return nil
	}
	*t = TypeCode(n)
	return nil
}
