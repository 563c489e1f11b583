package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
// Every mutation is a single statement or a single transaction so that a
// concurrent reader never observes a half-applied write.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Entity model related methods.
	CreateEntity(ctx context.Context, create *Entity) (*Entity, error)
	GetEntityBySourceRef(ctx context.Context, ref SourceRef) (*Entity, error)
	ListEntities(ctx context.Context, find *FindEntity) ([]*Entity, error)
	UpdateEntity(ctx context.Context, update *UpdateEntity) (*Entity, error)
	AddEntitySource(ctx context.Context, entityID int32, ref SourceRef) error
	ListEntitySources(ctx context.Context, entityID int32) ([]SourceRef, error)
	ArchiveEntity(ctx context.Context, id int32) error

	// MergeEntities merges the loser into the winner in one transaction:
	// applies the survivorship update, moves source refs, re-points edges
	// (collapsing duplicates to the higher-confidence edge), and tombstones
	// the loser with a redirect to the winner.
	MergeEntities(ctx context.Context, merge *MergeEntities) error

	// Edge model related methods.
	UpsertEdge(ctx context.Context, upsert *Edge) (*Edge, error)
	ListEdges(ctx context.Context, find *FindEdge) ([]*Edge, error)

	// Interaction model related methods.
	CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error)
	ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error)

	// StaffMember model related methods.
	UpsertStaffMember(ctx context.Context, upsert *StaffMember) (*StaffMember, error)
	ListStaffMembers(ctx context.Context, find *FindStaffMember) ([]*StaffMember, error)

	// Opportunity model related methods.
	CreateOpportunity(ctx context.Context, create *Opportunity) (*Opportunity, error)
	ListOpportunities(ctx context.Context, find *FindOpportunity) ([]*Opportunity, error)
}
