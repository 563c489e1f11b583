package store

import "context"

// Availability is the staffing availability of a staff member.
type Availability string

const (
	Available   Availability = "AVAILABLE"
	Partial     Availability = "PARTIAL"
	Unavailable Availability = "UNAVAILABLE"
)

// StaffMember is a row from the externally managed staff roster. The core
// treats the roster as read-mostly input for capability matching.
type StaffMember struct {
	ID              int32
	UID             string
	Name            string
	Clearance       string
	Certifications  []string
	Skills          []string
	ExperienceYears int
	Availability    Availability
	CreatedTs       int64
	UpdatedTs       int64
}

// FindStaffMember is the find condition for staff members.
type FindStaffMember struct {
	ID           *int32
	UID          *string
	Availability *Availability

	Limit  *int
	Offset *int
}

// UpsertStaffMember inserts or replaces a roster row by UID.
func (s *Store) UpsertStaffMember(ctx context.Context, upsert *StaffMember) (*StaffMember, error) {
	return s.driver.UpsertStaffMember(ctx, upsert)
}

// ListStaffMembers lists roster rows with filter.
func (s *Store) ListStaffMembers(ctx context.Context, find *FindStaffMember) ([]*StaffMember, error) {
	return s.driver.ListStaffMembers(ctx, find)
}
