package store

import "context"

// Opportunity is the minimal projection of a contract opportunity needed by
// the relationship scorer. The full opportunity lifecycle lives outside this
// core.
type Opportunity struct {
	ID            int32
	UID           string
	Title         string
	AgencyID      int32
	NAICSCode     string
	ValueEstimate float64
	DeadlineTs    *int64
	CreatedTs     int64
}

// FindOpportunity is the find condition for opportunities.
type FindOpportunity struct {
	ID       *int32
	UID      *string
	AgencyID *int32

	Limit  *int
	Offset *int
}

// CreateOpportunity creates an opportunity projection.
func (s *Store) CreateOpportunity(ctx context.Context, create *Opportunity) (*Opportunity, error) {
	return s.driver.CreateOpportunity(ctx, create)
}

// GetOpportunity returns the opportunity with the given uid, or nil.
func (s *Store) GetOpportunity(ctx context.Context, uid string) (*Opportunity, error) {
	list, err := s.driver.ListOpportunities(ctx, &FindOpportunity{UID: &uid})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListOpportunities lists opportunities with filter.
func (s *Store) ListOpportunities(ctx context.Context, find *FindOpportunity) ([]*Opportunity, error) {
	return s.driver.ListOpportunities(ctx, find)
}
