package capability

import (
	"regexp"
	"strconv"
	"strings"
)

// RequirementKind classifies an extracted requirement.
type RequirementKind string

const (
	KindClearance     RequirementKind = "clearance"
	KindCertification RequirementKind = "certification"
	KindSkill         RequirementKind = "skill"
	KindExperience    RequirementKind = "experience"
)

// Requirement is one demand extracted from opportunity text.
type Requirement struct {
	Kind      RequirementKind `json:"kind"`
	Value     string          `json:"value"`
	Years     int             `json:"years,omitempty"`
	Mandatory bool            `json:"mandatory"`
}

// Key identifies a requirement for assignment and gap reporting.
func (r Requirement) Key() string {
	if r.Kind == KindExperience {
		return string(r.Kind) + ":" + strconv.Itoa(r.Years) + "+ years"
	}
	return string(r.Kind) + ":" + strings.ToLower(r.Value)
}

// Clearances in ascending order; a staff member satisfies any requirement at
// or below their own level.
var clearanceOrder = []string{"Public Trust", "Secret", "Top Secret"}

var defaultCertifications = []string{
	"CISSP", "CISM", "CEH", "Security+", "Network+", "CCNA", "CCNP",
	"PMP", "CSM", "SAFe", "ITIL",
	"AWS Certified", "Azure Certified", "GCP Certified",
	"RHCE", "CKA", "CompTIA A+",
}

var defaultSkills = []string{
	"Java", "Python", "Golang", "C++", "C#", "JavaScript", "TypeScript",
	"React", "Angular", "Node.js", "SQL", "PostgreSQL", "Oracle", "MongoDB",
	"AWS", "Azure", "Kubernetes", "Docker", "Terraform", "Ansible",
	"CI/CD", "DevOps", "DevSecOps", "Agile", "Scrum",
	"Machine Learning", "Data Science", "Data Engineering", "ETL",
	"Cybersecurity", "Penetration Testing", "Incident Response", "SIEM",
	"Zero Trust", "Network Engineering", "Cloud Migration", "Microservices",
	"API Development", "Systems Engineering", "Help Desk",
}

var (
	experiencePattern = regexp.MustCompile(`(\d+)\s*\+?\s*years?`)
	mandatoryPattern  = regexp.MustCompile(`(?i)\b(required|must have|must possess|mandatory|shall)\b`)
	sentenceSplit     = regexp.MustCompile(`[.;\n]`)
)

// extract pulls clearance, certification, skill, and experience requirements
// out of free-form opportunity text. A requirement is mandatory when its
// sentence carries qualifying language; otherwise it is optional.
func extract(text string, certifications, skills []string) []Requirement {
	var requirements []Requirement
	seen := map[string]int{}

	add := func(req Requirement) {
		if i, ok := seen[req.Key()]; ok {
			// A mandatory mention anywhere outranks an optional one.
			if req.Mandatory {
				requirements[i].Mandatory = true
			}
			return
		}
		seen[req.Key()] = len(requirements)
		requirements = append(requirements, req)
	}

	for _, sentence := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		mandatory := mandatoryPattern.MatchString(sentence)
		lower := strings.ToLower(sentence)

		// Highest clearance first so "Top Secret" is not also counted as
		// "Secret".
		for i := len(clearanceOrder) - 1; i >= 0; i-- {
			level := clearanceOrder[i]
			if strings.Contains(lower, strings.ToLower(level)) {
				add(Requirement{Kind: KindClearance, Value: level, Mandatory: mandatory})
				break
			}
		}

		for _, cert := range certifications {
			if containsTerm(lower, strings.ToLower(cert)) {
				add(Requirement{Kind: KindCertification, Value: cert, Mandatory: mandatory})
			}
		}
		for _, skill := range skills {
			if containsTerm(lower, strings.ToLower(skill)) {
				add(Requirement{Kind: KindSkill, Value: skill, Mandatory: mandatory})
			}
		}

		for _, match := range experiencePattern.FindAllStringSubmatch(sentence, -1) {
			years, err := strconv.Atoi(match[1])
			if err != nil || years <= 0 || years > 60 {
				continue
			}
			add(Requirement{Kind: KindExperience, Years: years, Mandatory: mandatory})
		}
	}
	return requirements
}

// containsTerm is a word-bounded substring check so "Java" does not match
// "JavaScript".
func containsTerm(haystack, term string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(rune(haystack[start-1]))
		afterOK := end == len(haystack) || !isWordChar(rune(haystack[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

func clearanceRank(level string) int {
	normalized := strings.ToLower(strings.TrimSpace(level))
	for i, l := range clearanceOrder {
		if strings.ToLower(l) == normalized {
			return i + 1
		}
	}
	return 0
}
