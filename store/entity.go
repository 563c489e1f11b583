package store

import (
	"context"

	"github.com/pkg/errors"
)

// EntityKind discriminates the payload carried by an Entity.
type EntityKind string

const (
	PersonKind       EntityKind = "PERSON"
	OrganizationKind EntityKind = "ORGANIZATION"
)

// RoleType classifies a person's role in the contracting process.
type RoleType string

const (
	RoleDecisionMaker RoleType = "DECISION_MAKER"
	RoleTechnicalLead RoleType = "TECHNICAL_LEAD"
	RoleExecutive     RoleType = "EXECUTIVE"
	RoleInfluencer    RoleType = "INFLUENCER"
	RoleUnknown       RoleType = "UNKNOWN"
)

// InfluenceLevel ranks how much sway a contact has over an award.
type InfluenceLevel string

const (
	InfluenceVeryHigh InfluenceLevel = "VERY_HIGH"
	InfluenceHigh     InfluenceLevel = "HIGH"
	InfluenceMedium   InfluenceLevel = "MEDIUM"
	InfluenceLow      InfluenceLevel = "LOW"
)

// OrgType classifies an organization.
type OrgType string

const (
	OrgFederalAgency OrgType = "FEDERAL_AGENCY"
	OrgContractor    OrgType = "CONTRACTOR"
	OrgUnknown       OrgType = "UNKNOWN"
)

// SourceRef identifies the record in an upstream source that contributed to
// an entity. The (Source, LocalID) pair is unique across the store, which is
// what makes re-ingestion idempotent.
type SourceRef struct {
	Source  string
	LocalID string
}

// PersonPayload carries the person-specific fields of an entity.
type PersonPayload struct {
	DisplayName   string
	MatchName     string
	Email         string
	RawEmail      string
	InvalidEmail  bool
	Phone         string
	RawPhone      string
	UnparsedPhone bool
	LinkedInURL   string
	Title         string
	Location      string
	// OrganizationID is a weak reference to the person's current employer.
	// Historical employers are tracked via WORKS_AT edges, not overwritten here.
	OrganizationID *int32
	RoleType       RoleType
	Influence      InfluenceLevel
	Clearance      string
}

// OrganizationPayload carries the organization-specific fields of an entity.
type OrganizationPayload struct {
	Name         string
	MatchName    string
	Abbreviation string
	OrgType      OrgType
	Location     string
	// ParentID is a weak reference to the parent organization, if any.
	ParentID *int32
}

// Entity is the golden record for a person or organization. Exactly one of
// Person / Organization is set, matching Kind.
type Entity struct {
	ID        int32
	UID       string
	Kind      EntityKind
	RowStatus RowStatus
	// Confidence is the resolver's confidence that this is a correctly
	// merged record.
	Confidence  float64
	NeedsReview bool
	CreatedTs   int64
	UpdatedTs   int64
	// MergedIntoID is set on archived losers of a merge so stale references
	// can be redirected to the surviving entity.
	MergedIntoID *int32

	Sources []SourceRef

	Person       *PersonPayload
	Organization *OrganizationPayload
}

// FindEntity is the find condition for entities.
type FindEntity struct {
	ID          *int32
	UID         *string
	Kind        *EntityKind
	RowStatus   *RowStatus
	NeedsReview *bool

	// Deterministic-match lookups over person fields.
	Email       *string
	Phone       *string
	LinkedInURL *string

	// MatchName matches the normalized matching-form name for either kind.
	MatchName      *string
	OrganizationID *int32
	Location       *string
	ParentID       *int32

	Limit  *int
	Offset *int
}

// UpdateEntity is the partial update request for an entity. Nil fields are
// left untouched.
type UpdateEntity struct {
	ID          int32
	Confidence  *float64
	NeedsReview *bool
	UpdatedTs   *int64

	DisplayName   *string
	MatchName     *string
	Email         *string
	RawEmail      *string
	InvalidEmail  *bool
	Phone         *string
	RawPhone      *string
	UnparsedPhone *bool
	LinkedInURL   *string
	Title         *string
	Location      *string
	OrganizationID *int32
	RoleType      *RoleType
	Influence     *InfluenceLevel
	Clearance     *string

	OrgName      *string
	Abbreviation *string
	OrgType      *OrgType
	ParentID     *int32
}

// MergeEntities is the request for a transactional merge of LoserID into
// WinnerID. Update carries the field-survivorship result computed by the
// resolver and is applied to the winner inside the same transaction that
// re-points edges and tombstones the loser.
type MergeEntities struct {
	WinnerID int32
	LoserID  int32
	Update   *UpdateEntity
}

// CreateEntity creates a new entity together with its source refs. When one
// of the refs has already been ingested the existing entity is returned
// instead, so replaying the same source records never produces duplicates.
func (s *Store) CreateEntity(ctx context.Context, create *Entity) (*Entity, error) {
	if create.Person == nil && create.Organization == nil {
		return nil, errors.New("entity payload is required")
	}
	for _, ref := range create.Sources {
		existing, err := s.driver.GetEntityBySourceRef(ctx, ref)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.MergedIntoID != nil {
				return s.GetEntity(ctx, existing.ID)
			}
			return existing, nil
		}
	}
	entity, err := s.driver.CreateEntity(ctx, create)
	if err != nil {
		return nil, err
	}
	s.entityCache.Set(cacheKeyEntityID(entity.ID), entity)
	return entity, nil
}

// GetEntity returns the entity with the given id, following merge redirects
// so a stale id still resolves to the surviving golden record. Returns nil
// when not found.
func (s *Store) GetEntity(ctx context.Context, id int32) (*Entity, error) {
	if v, ok := s.entityCache.Get(cacheKeyEntityID(id)); ok {
		return v.(*Entity), nil
	}
	entity, err := s.getEntityNoRedirect(ctx, id)
	if err != nil {
		return nil, err
	}
	// Follow merge redirects; chains are short but bounded defensively.
	for hops := 0; entity != nil && entity.MergedIntoID != nil && hops < 16; hops++ {
		entity, err = s.getEntityNoRedirect(ctx, *entity.MergedIntoID)
		if err != nil {
			return nil, err
		}
	}
	if entity != nil && entity.MergedIntoID == nil {
		s.entityCache.Set(cacheKeyEntityID(id), entity)
	}
	return entity, nil
}

func (s *Store) getEntityNoRedirect(ctx context.Context, id int32) (*Entity, error) {
	list, err := s.driver.ListEntities(ctx, &FindEntity{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// GetEntityBySourceRef returns the entity owning the given source ref, or
// nil when the ref has never been ingested.
func (s *Store) GetEntityBySourceRef(ctx context.Context, ref SourceRef) (*Entity, error) {
	return s.driver.GetEntityBySourceRef(ctx, ref)
}

// ListEntities lists entities with filter.
func (s *Store) ListEntities(ctx context.Context, find *FindEntity) ([]*Entity, error) {
	return s.driver.ListEntities(ctx, find)
}

// UpdateEntity applies a partial update.
func (s *Store) UpdateEntity(ctx context.Context, update *UpdateEntity) (*Entity, error) {
	entity, err := s.driver.UpdateEntity(ctx, update)
	if err != nil {
		return nil, err
	}
	s.entityCache.Delete(cacheKeyEntityID(update.ID))
	return entity, nil
}

// AddEntitySource attaches an additional source ref to an existing entity.
// Attaching a ref that is already present is a no-op.
func (s *Store) AddEntitySource(ctx context.Context, entityID int32, ref SourceRef) error {
	return s.driver.AddEntitySource(ctx, entityID, ref)
}

// ListEntitySources returns the source refs contributing to an entity.
func (s *Store) ListEntitySources(ctx context.Context, entityID int32) ([]SourceRef, error) {
	return s.driver.ListEntitySources(ctx, entityID)
}

// ArchiveEntity soft-retires an entity. Edges are preserved for audit.
func (s *Store) ArchiveEntity(ctx context.Context, id int32) error {
	if err := s.driver.ArchiveEntity(ctx, id); err != nil {
		return err
	}
	s.entityCache.Delete(cacheKeyEntityID(id))
	return nil
}

// Merge merges the loser entity into the winner in a single transaction.
// Readers concurrent with the merge either see the pre-merge state or the
// fully merged state, never a dangling edge.
func (s *Store) Merge(ctx context.Context, merge *MergeEntities) error {
	if merge.WinnerID == merge.LoserID {
		return errors.New("cannot merge an entity into itself")
	}
	if err := s.driver.MergeEntities(ctx, merge); err != nil {
		return err
	}
	s.entityCache.Delete(cacheKeyEntityID(merge.WinnerID))
	s.entityCache.Delete(cacheKeyEntityID(merge.LoserID))
	return nil
}
