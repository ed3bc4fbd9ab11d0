// Package profile defines the structured user attributes supplied with a
// retrieval request. The engine never mutates a profile; it reads the region
// for hard filtering and the summary for synthetic queries, and hands the rest
// to the eligibility filter.
package profile

import "strings"

// Profile is the current user's structured attributes. Nullable attributes are
// pointers so "unknown" stays distinguishable from a zero value.
type Profile struct {
	// RegionCode is the residency district string (시군구). Preferred source
	// for the region hard filter.
	RegionCode string
	// RegionGu is a legacy district field some upstream clients still send;
	// used only when RegionCode is empty.
	RegionGu string

	Sex                     string
	BirthDate               string
	InsuranceType           string
	MedianIncomeRatio       *float64
	BasicBenefitType        string
	DisabilityGrade         *int
	LongTermCareGrade       *int
	PregnantOrPostpartum12m *bool

	// Summary is the prebuilt one-line description of the user (age, region,
	// conditions) produced by the context stage, e.g. "65세, 서울".
	Summary string
}

// Region returns the raw region value to normalize for hard filtering:
// RegionCode when present, otherwise RegionGu, otherwise empty.
func (p *Profile) Region() string {
	if p == nil {
		return ""
	}
	if r := strings.TrimSpace(p.RegionCode); r != "" {
		return r
	}
	return strings.TrimSpace(p.RegionGu)
}

// SummaryText returns the trimmed profile summary, empty when absent.
func (p *Profile) SummaryText() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Summary)
}
