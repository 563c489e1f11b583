package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrInvalidEdge is returned when an edge references an entity id that does
// not exist. Non-retryable; the caller must resolve the entity first.
var ErrInvalidEdge = errors.New("edge references a nonexistent entity")

// EdgeType is the typed relationship between two entities.
type EdgeType string

const (
	EdgeWorksAt     EdgeType = "WORKS_AT"
	EdgeReportsTo   EdgeType = "REPORTS_TO"
	EdgePeer        EdgeType = "PEER"
	EdgeAwardedBy   EdgeType = "AWARDED_BY"
	EdgeAwardedTo   EdgeType = "AWARDED_TO"
	EdgeMetAt       EdgeType = "MET_AT"
	EdgeEvaluatorOf EdgeType = "EVALUATOR_OF"
	EdgeMentions    EdgeType = "MENTIONS"
)

// EdgeStrength grades a relationship, derived from interaction recency and
// frequency or declared explicitly by the source.
type EdgeStrength string

const (
	StrengthStrong EdgeStrength = "STRONG"
	StrengthMedium EdgeStrength = "MEDIUM"
	StrengthWeak   EdgeStrength = "WEAK"
)

// Edge is a typed, weighted relationship between two entities. Direction
// matters for asymmetric types such as REPORTS_TO. At most one edge exists
// per (FromID, ToID, Type) triple; re-ingestion upserts strength and
// confidence on the existing edge.
type Edge struct {
	ID         int32
	FromID     int32
	ToID       int32
	Type       EdgeType
	Strength   EdgeStrength
	Source     string
	Confidence float64
	CreatedTs  int64
	UpdatedTs  int64
}

// EdgeDirection selects which endpoint of an edge to match in traversal.
type EdgeDirection string

const (
	DirectionOut  EdgeDirection = "OUT"
	DirectionIn   EdgeDirection = "IN"
	DirectionBoth EdgeDirection = "BOTH"
)

// FindEdge is the find condition for edges.
type FindEdge struct {
	ID     *int32
	FromID *int32
	ToID   *int32
	// EitherID matches edges touching the entity on either endpoint.
	EitherID *int32
	Types    []EdgeType
	Source   *string

	Limit  *int
	Offset *int
}

// UpsertEdge inserts the edge, or updates strength and confidence on the
// existing (from, to, type) edge, keeping the higher-confidence version.
func (s *Store) UpsertEdge(ctx context.Context, upsert *Edge) (*Edge, error) {
	return s.driver.UpsertEdge(ctx, upsert)
}

// ListEdges lists edges with filter.
func (s *Store) ListEdges(ctx context.Context, find *FindEdge) ([]*Edge, error) {
	return s.driver.ListEdges(ctx, find)
}
