// Package capability matches extracted opportunity requirements against a
// staff roster and produces a coverage score with assignments and gaps.
package capability

import (
	"math"
	"strings"

	"github.com/capturelab/capture/store"
)

// Gap is an unmatched requirement. Missing mandatory requirements are the
// ones that sink a bid.
type Gap struct {
	Requirement Requirement `json:"requirement"`
	Severity    string      `json:"severity"`
}

const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
)

// Result is the outcome of matching one opportunity against the roster.
type Result struct {
	Score          int                 `json:"score"`
	Matched        []Requirement       `json:"matched"`
	Gaps           []Gap               `json:"gaps"`
	Assignments    map[string][]string `json:"assignments"`
	Recommendation string              `json:"recommendation"`
}

// Options overrides the extraction vocabularies. Zero values use the
// defaults.
type Options struct {
	Certifications []string
	Skills         []string
}

// Match extracts requirements from opportunity text and scores roster
// coverage: 70 points for mandatory requirements, 30 for optional. An empty
// roster yields zero matches, never an error.
func Match(text string, roster []*store.StaffMember, opts Options) *Result {
	certifications := opts.Certifications
	if certifications == nil {
		certifications = defaultCertifications
	}
	skills := opts.Skills
	if skills == nil {
		skills = defaultSkills
	}

	requirements := extract(text, certifications, skills)

	result := &Result{Assignments: map[string][]string{}}
	var mandatoryTotal, mandatoryMatched, optionalTotal, optionalMatched int
	for _, req := range requirements {
		if req.Mandatory {
			mandatoryTotal++
		} else {
			optionalTotal++
		}

		var satisfiedBy []string
		for _, member := range roster {
			if satisfies(member, req) {
				satisfiedBy = append(satisfiedBy, member.Name)
			}
		}
		if len(satisfiedBy) == 0 {
			severity := SeverityMedium
			if req.Mandatory {
				severity = SeverityHigh
			}
			result.Gaps = append(result.Gaps, Gap{Requirement: req, Severity: severity})
			continue
		}
		if req.Mandatory {
			mandatoryMatched++
		} else {
			optionalMatched++
		}
		result.Matched = append(result.Matched, req)
		result.Assignments[req.Key()] = satisfiedBy
	}

	// Zero mandatory requirements award the 70-point component in full;
	// loosely specified opportunities are not penalized.
	mandatoryShare := 1.0
	if mandatoryTotal > 0 {
		mandatoryShare = float64(mandatoryMatched) / float64(mandatoryTotal)
	}
	optionalShare := float64(optionalMatched) / math.Max(float64(optionalTotal), 1)

	result.Score = int(math.Round(70*mandatoryShare + 30*optionalShare))
	result.Recommendation = recommendationFor(result.Score)
	return result
}

func satisfies(member *store.StaffMember, req Requirement) bool {
	switch req.Kind {
	case KindClearance:
		return clearanceRank(member.Clearance) >= clearanceRank(req.Value)
	case KindCertification:
		return containsFold(member.Certifications, req.Value)
	case KindSkill:
		return containsFold(member.Skills, req.Value)
	case KindExperience:
		return member.ExperienceYears >= req.Years
	}
	return false
}

func containsFold(set []string, value string) bool {
	for _, item := range set {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}

func recommendationFor(score int) string {
	switch {
	case score >= 85:
		return "strong match, bid alone"
	case score >= 60:
		return "good match"
	case score >= 40:
		return "team recommended"
	default:
		return "reconsider"
	}
}
