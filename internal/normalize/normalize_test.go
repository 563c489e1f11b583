package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		raw     string
		display string
		match   string
	}{
		{"  sarah   johnson ", "Sarah Johnson", "sarah johnson"},
		{"S. Johnson", "S. Johnson", "s johnson"},
		{"josé  garcía", "José García", "jose garcia"},
		{"", "", ""},
	}
	for _, tt := range tests {
		display, match := Name(tt.raw)
		require.Equal(t, tt.display, display, "display of %q", tt.raw)
		require.Equal(t, tt.match, match, "match of %q", tt.raw)
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		raw     string
		email   string
		invalid bool
	}{
		{"S.Johnson@DISA.MIL", "s.johnson@disa.mil", false},
		{"  user@example.com ", "user@example.com", false},
		{"not-an-email", "", true},
		{"trailing@", "", true},
		{"@nodomain", "", true},
		{"", "", false},
	}
	for _, tt := range tests {
		email, raw, invalid := Email(tt.raw)
		require.Equal(t, tt.email, email, "email of %q", tt.raw)
		require.Equal(t, tt.invalid, invalid, "invalid flag of %q", tt.raw)
		if tt.raw != "" {
			require.NotEmpty(t, raw)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		raw      string
		phone    string
		unparsed bool
	}{
		{"(703) 555-0142", "17035550142", false},
		{"1-703-555-0142", "17035550142", false},
		{"703.555.0142", "17035550142", false},
		{"555-0142", "", true},
		{"+44 20 7946 0958", "", true},
		{"", "", false},
	}
	for _, tt := range tests {
		phone, _, unparsed := Phone(tt.raw)
		require.Equal(t, tt.phone, phone, "phone of %q", tt.raw)
		require.Equal(t, tt.unparsed, unparsed, "unparsed flag of %q", tt.raw)
	}
}

func TestExpandAbbreviation(t *testing.T) {
	expanded, ok := ExpandAbbreviation("DISA")
	require.True(t, ok)
	require.Equal(t, "Defense Information Systems Agency", expanded)

	expanded, ok = ExpandAbbreviation("disa")
	require.True(t, ok)
	require.Equal(t, "Defense Information Systems Agency", expanded)

	passthrough, ok := ExpandAbbreviation("Acme Federal Services")
	require.False(t, ok)
	require.Equal(t, "Acme Federal Services", passthrough)
}

func TestNormalize(t *testing.T) {
	n := New(DefaultRegistry())

	rec, err := n.Normalize(map[string]string{
		"id":           "c-100",
		"name":         "sarah  johnson",
		"email":        "S.Johnson@DISA.MIL",
		"phone":        "(703) 555-0142",
		"title":        "Program Manager",
		"location":     "Fort Meade",
		"organization": "DISA",
		"observed_ts":  "1700000000",
	}, "manual")
	require.NoError(t, err)
	require.Equal(t, "manual", rec.Source)
	require.Equal(t, "c-100", rec.LocalID)
	require.Equal(t, "Sarah Johnson", rec.DisplayName)
	require.Equal(t, "sarah johnson", rec.MatchName)
	require.Equal(t, "s.johnson@disa.mil", rec.Email)
	require.False(t, rec.InvalidEmail)
	require.Equal(t, "17035550142", rec.Phone)
	require.False(t, rec.UnparsedPhone)
	require.Equal(t, "Defense Information Systems Agency", rec.Organization)
	require.Equal(t, "defense information systems agency", rec.OrganizationMatch)
	require.EqualValues(t, 1700000000, rec.ObservedTs)
}

func TestNormalizeOrganizationName(t *testing.T) {
	n := New(DefaultRegistry())

	rec, err := n.Normalize(map[string]string{
		"id":   "org-1",
		"name": "DISA",
	}, "manual")
	require.NoError(t, err)
	require.Equal(t, "Defense Information Systems Agency", rec.DisplayName)
	require.Equal(t, "DISA", rec.Abbreviation)
}

func TestNormalizeInvalidFieldsAreSoft(t *testing.T) {
	n := New(DefaultRegistry())

	rec, err := n.Normalize(map[string]string{
		"id":    "c-101",
		"name":  "Jane Doe",
		"email": "not-an-email",
		"phone": "555-0142",
	}, "manual")
	require.NoError(t, err)
	require.Empty(t, rec.Email)
	require.True(t, rec.InvalidEmail)
	require.Equal(t, "not-an-email", rec.RawEmail)
	require.Empty(t, rec.Phone)
	require.True(t, rec.UnparsedPhone)
}

func TestNormalizeUnsupportedSource(t *testing.T) {
	n := New(DefaultRegistry())

	_, err := n.Normalize(map[string]string{"id": "x"}, "scraped-pdf")
	require.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestRegistryPriority(t *testing.T) {
	r := DefaultRegistry()
	require.Greater(t, r.Priority("manual"), r.Priority("sam.gov"))
	require.Greater(t, r.Priority("sam.gov"), r.Priority("fpds"))
	require.Greater(t, r.Priority("fpds"), r.Priority("inferred"))
	require.Zero(t, r.Priority("inferred"))
}
