// Package normalize canonicalizes raw source records into the common shape
// consumed by the resolver. Normalization is pure: nothing here touches the
// store, and the same input always produces the same output.
package normalize

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupportedSource is returned when a record declares a source schema
// that is not registered. The record is rejected; the batch continues.
var ErrUnsupportedSource = errors.New("unsupported source schema")

// Record is a canonicalized source record. It carries both person and
// organization fields; the resolver picks the ones relevant to the entity
// kind being resolved.
type Record struct {
	Source  string
	LocalID string

	DisplayName string
	MatchName   string

	Email        string
	RawEmail     string
	InvalidEmail bool

	Phone         string
	RawPhone      string
	UnparsedPhone bool

	LinkedInURL string
	Title       string
	Location    string
	Clearance   string
	// Role and Influence are free-form classifier strings, present only on
	// sources that declare them (manual entry).
	Role      string
	Influence string

	// Organization is the (expanded) employer or agency name on a person
	// record, or empty. OrganizationMatch is its matching form.
	Organization      string
	OrganizationMatch string
	// Abbreviation holds the original short form when the name field was
	// expanded through the abbreviation table.
	Abbreviation string

	// ObservedTs is when the source produced the record, used for field
	// survivorship. Zero means the source did not say.
	ObservedTs int64
}

type Normalizer struct {
	registry *Registry
}

func New(registry *Registry) *Normalizer {
	return &Normalizer{registry: registry}
}

// Normalize canonicalizes a raw record according to its declared source
// schema. Malformed emails and phones are soft failures captured in flags;
// an unregistered schema is the only hard failure.
func (n *Normalizer) Normalize(raw map[string]string, schemaName string) (*Record, error) {
	schema, err := n.registry.Get(schemaName)
	if err != nil {
		return nil, err
	}
	field := func(name string) string {
		key, ok := schema.Fields[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(raw[key])
	}

	rec := &Record{
		Source:  schema.Name,
		LocalID: field("local_id"),
	}
	if rec.LocalID == "" {
		return nil, errors.Errorf("record has no local id under schema %q", schema.Name)
	}

	name := field("name")
	if expanded, ok := ExpandAbbreviation(name); ok {
		rec.Abbreviation = name
		name = expanded
	}
	rec.DisplayName, rec.MatchName = Name(name)

	rec.Email, rec.RawEmail, rec.InvalidEmail = Email(field("email"))
	rec.Phone, rec.RawPhone, rec.UnparsedPhone = Phone(field("phone"))
	rec.LinkedInURL = field("linkedin_url")
	rec.Title = field("title")
	rec.Location = strings.Join(strings.Fields(field("location")), " ")
	rec.Clearance = field("clearance")
	rec.Role = field("role_type")
	rec.Influence = field("influence")

	org := field("organization")
	if expanded, ok := ExpandAbbreviation(org); ok {
		org = expanded
	}
	rec.Organization, rec.OrganizationMatch = Name(org)

	if ts := field("observed_ts"); ts != "" {
		parsed, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid observed_ts %q", ts)
		}
		rec.ObservedTs = parsed
	}
	return rec, nil
}
