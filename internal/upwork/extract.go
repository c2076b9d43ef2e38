package upwork

import (
	"encoding/json"
	"sort"
)

// maxSearchDepth bounds the fallback tree search over server-rendered state.
const maxSearchDepth = 12

// Payload is a decoded intercepted payload plus the capture metadata the
// browser side attaches when it has any.
type Payload struct {
	SourceURL   string
	SearchQuery string
	Jobs        []RawJob
}

// ExtractPayload locates the job records inside an arbitrary intercepted
// JSON body. It recognizes three wire shapes: a capture envelope with a
// `jobs` array, a GraphQL job-detail envelope, and an arbitrary state tree
// searched for job-shaped objects. An unrecognizable body yields an empty
// payload, never an error; irrelevant traffic is the common case.
func ExtractPayload(body []byte) Payload {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return Payload{}
	}

	m, ok := root.(map[string]any)
	if !ok {
		return Payload{Jobs: searchJobs(root)}
	}

	p := Payload{
		SourceURL:   getString(m, "url"),
		SearchQuery: getString(m, "query"),
	}
	if p.SearchQuery == "" {
		p.SearchQuery = getString(m, "alias")
	}

	// Feed envelope: jobs array taken verbatim.
	if arr, ok := m["jobs"].([]any); ok {
		p.Jobs = decodeJobs(arr)
		return p
	}

	// Detail envelope: data.<operation>.opening.job.info.ciphertext marks a
	// single job spread across sibling objects.
	if data, ok := m["data"].(map[string]any); ok {
		for _, key := range sortedKeys(data) {
			op, ok := data[key].(map[string]any)
			if !ok {
				continue
			}
			if job := buildDetailJob(op); job != nil {
				p.Jobs = []RawJob{*job}
				return p
			}
		}
	}

	p.Jobs = searchJobs(root)
	return p
}

// buildDetailJob reconstructs one RawJob from the scattered fields of a
// job-detail operation, or returns nil when the detail marker is absent.
// Missing nested fields fall back to documented defaults.
func buildDetailJob(op map[string]any) *RawJob {
	opening := getMap(op, "opening")
	job := getMap(opening, "job")
	info := getMap(job, "info")
	ciphertext := getString(info, "ciphertext")
	if ciphertext == "" {
		return nil
	}

	activity := getMap(opening, "clientActivity")
	buyer := getMap(op, "buyer")
	buyerStats := getMap(buyer, "info", "stats")

	raw := &RawJob{
		UID:           FlexString(firstString(getString(info, "id"), getString(info, "uid"))),
		Ciphertext:    ciphertext,
		Title:         getString(info, "title"),
		Description:   getString(job, "description"),
		CreatedOn:     firstString(getString(info, "createdOn"), getString(job, "postedOn")),
		PublishedOn:   firstString(getString(job, "publishTime"), getString(job, "publishedOn"), getString(info, "createdOn")),
		DurationLabel: getString(job, "engagementDuration", "label"),
		Engagement:    getString(job, "workload"),
		Premium:       getBool(info, "premium"),
		TierText:      getString(job, "contractorTier"),
		Status:        getString(job, "status"),
	}

	if getString(info, "type") == "HOURLY" {
		raw.Type = typeCodeHourly
	} else {
		raw.Type = typeCodeFixed
	}

	if raw.Type == typeCodeFixed {
		if amount, ok := getFloat(getMap(job, "budget"), "amount"); ok {
			raw.Amount = &Amount{Amount: amount}
		}
	}
	if ext := getMap(job, "extendedBudgetInfo"); ext != nil {
		min, _ := getFloat(ext, "hourlyBudgetMin")
		max, _ := getFloat(ext, "hourlyBudgetMax")
		raw.HourlyBudget = &HourlyBudget{Min: min, Max: max}
	}

	// Applied is only knowable from the viewer's own application record.
	freelancer := getMap(op, "currentUserInfo", "freelancerInfo")
	if freelancer != nil {
		_, applied := freelancer["applied"]
		raw.IsApplied = applied && freelancer["applied"] != nil
	}

	raw.FreelancersToHire = getIntDefault(activity, "numberOfPositionsToHire", 1)

	if skills, ok := getMap(job, "sandsData")["ontologySkills"].([]any); ok {
		for _, item := range skills {
			s, ok := item.(map[string]any)
			if !ok {
				continue
			}
			label := getString(s, "prefLabel")
			raw.Attrs = append(raw.Attrs, RawSkillAttr{
				UID:         FlexString(firstString(getString(s, "id"), getString(s, "uid"))),
				PrefLabel:   label,
				PrettyName:  label,
				Highlighted: getString(s, "relevance") == "MANDATORY",
			})
		}
	}

	client := &RawClient{
		IsPaymentVerified: getBool(buyer, "isPaymentMethodVerified"),
		TotalReviews:      getIntDefault(buyerStats, "feedbackCount", 0),
	}
	client.Location.Country = getString(buyer, "info", "location", "country")
	if spent, ok := getFloat(getMap(buyerStats, "totalCharges"), "amount"); ok {
		client.TotalSpent = FlexString(formatFloat(spent))
	}
	if score, ok := getFloat(buyerStats, "score"); ok {
		client.TotalFeedback = score
	}
	raw.Client = client

	raw.ClientTotalAssignments = getIntPtr(buyerStats, "totalAssignments")
	raw.ClientActiveAssignments = getIntPtr(buyerStats, "activeAssignmentsCount")
	raw.ClientTotalJobsWithHires = getIntPtr(buyerStats, "totalJobsWithHires")
	raw.ClientOpenJobs = getIntPtr(getMap(buyer, "info", "jobs"), "openCount")

	raw.ClientActivity = &RawClientActivity{
		TotalHired:              intPtr(getIntDefault(activity, "totalHired", 0)),
		TotalApplicants:         intPtr(getIntDefault(activity, "totalApplicants", 0)),
		TotalInvitedToInterview: intPtr(getIntDefault(activity, "totalInvitedToInterview", 0)),
		InvitationsSent:         intPtr(getIntDefault(activity, "invitationsSent", 0)),
		UnansweredInvites:       intPtr(getIntDefault(activity, "unansweredInvites", 0)),
		LastBuyerActivity:       getString(activity, "lastBuyerActivity"),
		NumberOfPositionsToHire: raw.FreelancersToHire,
	}

	return raw
}

// searchJobs walks an arbitrary decoded tree looking for job-shaped data:
// objects (or arrays of objects) carrying both identifying fields, falling
// back to any reachable `results` array. Depth is bounded and unreadable
// branches are skipped.
func searchJobs(root any) []RawJob {
	if found := findJobObjects(root, 0); len(found) > 0 {
		return decodeJobs(found)
	}
	if results := findResultsArray(root, 0); results != nil {
		return decodeJobs(results)
	}
	return nil
}

func findJobObjects(node any, depth int) []any {
	if depth > maxSearchDepth || node == nil {
		return nil
	}

	switch v := node.(type) {
	case map[string]any:
		if isJobShaped(v) {
			return []any{v}
		}
		var found []any
		for _, key := range sortedKeys(v) {
			found = append(found, findJobObjects(v[key], depth+1)...)
		}
		return found

	case []any:
		var jobs []any
		for _, item := range v {
			if m, ok := item.(map[string]any); ok && isJobShaped(m) {
				jobs = append(jobs, m)
			}
		}
		if len(jobs) > 0 {
			return jobs
		}
		var found []any
		for _, item := range v {
			found = append(found, findJobObjects(item, depth+1)...)
		}
		return found
	}

	return nil
}

func findResultsArray(node any, depth int) []any {
	if depth > maxSearchDepth || node == nil {
		return nil
	}

	switch v := node.(type) {
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			return results
		}
		for _, key := range sortedKeys(v) {
			if r := findResultsArray(v[key], depth+1); r != nil {
				return r
			}
		}

	case []any:
		for _, item := range v {
			if r := findResultsArray(item, depth+1); r != nil {
				return r
			}
		}
	}

	return nil
}

func isJobShaped(m map[string]any) bool {
	ct, _ := m["ciphertext"].(string)
	title, _ := m["title"].(string)
	return ct != "" && title != ""
}

// decodeJobs converts loose objects into RawJobs, skipping any element that
// does not decode or lacks the identifying ciphertext.
func decodeJobs(items []any) []RawJob {
	jobs := make([]RawJob, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var raw RawJob
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		if raw.Ciphertext == "" {
			continue
		}
		jobs = append(jobs, raw)
	}
	return jobs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
