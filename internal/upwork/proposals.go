package upwork

import "strings"

// Canonical proposals bands, in ascending order.
var proposalBands = []struct {
	token string
	label string
}{
	{"lessthan5", "Less than 5"},
	{"5to10", "5 to 10"},
	{"10to15", "10 to 15"},
	{"15to20", "15 to 20"},
	{"20to50", "20 to 50"},
	{"50plus", "50+"},
	{"50+", "50+"},
}

// ParseProposalsBand maps a coded proposals label (e.g. "5to10") onto its
// canonical human-readable band ("5 to 10"). Input already in canonical form
// passes through unchanged, and so does anything unrecognized; the mapping is
// best effort and never fails.
func ParseProposalsBand(text string) string {
	lower := strings.ToLower(text)
	for _, band := range proposalBands {
		if strings.Contains(lower, band.token) {
			return band.label
		}
	}
	return text
}
