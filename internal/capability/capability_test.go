package capability

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capturelab/capture/store"
)

func staff(name, clearance string, years int, certs, skills []string) *store.StaffMember {
	return &store.StaffMember{
		Name:            name,
		Clearance:       clearance,
		Certifications:  certs,
		Skills:          skills,
		ExperienceYears: years,
		Availability:    store.Available,
	}
}

func TestExtractRequirements(t *testing.T) {
	text := "Top Secret clearance required. CISSP preferred. Must have 5+ years of Java development. Kubernetes experience a plus."
	requirements := extract(text, defaultCertifications, defaultSkills)

	byKey := map[string]Requirement{}
	for _, req := range requirements {
		byKey[req.Key()] = req
	}

	clearance, ok := byKey["clearance:top secret"]
	require.True(t, ok)
	require.True(t, clearance.Mandatory)

	cert, ok := byKey["certification:cissp"]
	require.True(t, ok)
	require.False(t, cert.Mandatory)

	java, ok := byKey["skill:java"]
	require.True(t, ok)
	require.True(t, java.Mandatory)

	experience, ok := byKey["experience:5+ years"]
	require.True(t, ok)
	require.True(t, experience.Mandatory)
	require.Equal(t, 5, experience.Years)

	kubernetes, ok := byKey["skill:kubernetes"]
	require.True(t, ok)
	require.False(t, kubernetes.Mandatory)
}

func TestExtractWordBoundaries(t *testing.T) {
	requirements := extract("JavaScript developers wanted", defaultCertifications, defaultSkills)
	for _, req := range requirements {
		require.NotEqual(t, "skill:java", req.Key())
	}
}

func TestClearanceOrdering(t *testing.T) {
	roster := []*store.StaffMember{
		staff("Dana White", "Top Secret", 10, nil, nil),
	}
	result := Match("Secret clearance required", roster, Options{})

	require.Len(t, result.Matched, 1)
	require.Empty(t, result.Gaps)
	require.Equal(t, 70, result.Score)
	require.Equal(t, []string{"Dana White"}, result.Assignments["clearance:secret"])
}

func TestClearanceNotSatisfiedDownward(t *testing.T) {
	roster := []*store.StaffMember{
		staff("Sam Lee", "Public Trust", 10, nil, nil),
	}
	result := Match("Secret clearance required", roster, Options{})

	require.Empty(t, result.Matched)
	require.Len(t, result.Gaps, 1)
	require.Equal(t, SeverityHigh, result.Gaps[0].Severity)
	require.Equal(t, 0, result.Score)
	require.Equal(t, "reconsider", result.Recommendation)
}

func TestEmptyRosterDoesNotError(t *testing.T) {
	result := Match("Secret clearance required. Python preferred.", nil, Options{})
	require.Equal(t, 0, result.Score)
	require.Len(t, result.Gaps, 2)
}

func TestFullCoverage(t *testing.T) {
	roster := []*store.StaffMember{
		staff("Maria Alvarez", "Secret", 8, []string{"PMP"}, []string{"Python", "AWS"}),
	}
	result := Match("Secret clearance required. Must have 5+ years of experience. Python and AWS preferred.", roster, Options{})

	require.Equal(t, 100, result.Score)
	require.Equal(t, "strong match, bid alone", result.Recommendation)
	require.Empty(t, result.Gaps)
}

func TestPartialCoverageRecommendations(t *testing.T) {
	roster := []*store.StaffMember{
		staff("Sam Lee", "Secret", 3, nil, []string{"Python"}),
	}
	// Mandatory: clearance (matched), 10+ years (missed). Optional: Python
	// (matched), Terraform (missed). 70*0.5 + 30*0.5 = 50.
	result := Match("Secret clearance required. Must have 10+ years of experience. Python and Terraform preferred.", roster, Options{})

	require.Equal(t, 50, result.Score)
	require.Equal(t, "team recommended", result.Recommendation)
}

func TestAssignmentsListEveryQualifiedMember(t *testing.T) {
	roster := []*store.StaffMember{
		staff("A", "Top Secret", 12, nil, []string{"Kubernetes"}),
		staff("B", "Secret", 6, nil, []string{"Kubernetes"}),
	}
	result := Match("Kubernetes required", roster, Options{})

	require.Equal(t, []string{"A", "B"}, result.Assignments["skill:kubernetes"])
}

func TestNoMandatoryRequirementsAwardsBaseComponent(t *testing.T) {
	roster := []*store.StaffMember{
		staff("A", "", 4, nil, []string{"Python"}),
	}
	result := Match("Python experience preferred", roster, Options{})

	// No mandatory requirements: the 70-point component is trivially
	// satisfied, and the single optional requirement is matched.
	require.Equal(t, 100, result.Score)
}
