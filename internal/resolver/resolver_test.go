package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capturelab/capture/internal/normalize"
	"github.com/capturelab/capture/store"
	storetest "github.com/capturelab/capture/store/test"
)

func newTestResolver(ctx context.Context, t *testing.T) (*Resolver, *store.Store, *normalize.Normalizer) {
	st := storetest.NewTestingStore(ctx, t)
	return New(st, Options{}), st, normalize.New(normalize.DefaultRegistry())
}

func mustNormalize(t *testing.T, n *normalize.Normalizer, raw map[string]string, schema string) *normalize.Record {
	rec, err := n.Normalize(raw, schema)
	require.NoError(t, err)
	return rec
}

func TestResolveCreatesNewPerson(t *testing.T) {
	ctx := context.Background()
	r, st, n := newTestResolver(ctx, t)

	rec := mustNormalize(t, n, map[string]string{
		"id":           "c-1",
		"name":         "Sarah Johnson",
		"email":        "s.johnson@disa.mil",
		"organization": "DISA",
		"location":     "Fort Meade",
	}, "manual")

	res, err := r.Resolve(ctx, rec, store.PersonKind)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Equal(t, StatusCreated, res.Status)
	require.Equal(t, 2, res.Phase)

	entity, err := st.GetEntity(ctx, res.EntityID)
	require.NoError(t, err)
	require.NotNil(t, entity.Person)
	require.Equal(t, "Sarah Johnson", entity.Person.DisplayName)
	require.NotNil(t, entity.Person.OrganizationID)

	// The employer was materialized with its expanded name and linked.
	org, err := st.GetEntity(ctx, *entity.Person.OrganizationID)
	require.NoError(t, err)
	require.Equal(t, "Defense Information Systems Agency", org.Organization.Name)
	edges, err := st.ListEdges(ctx, &store.FindEdge{FromID: &entity.ID, Types: []store.EdgeType{store.EdgeWorksAt}})
	require.NoError(t, err)
	require.Len(t, edges, 1)
}

func TestResolveSourceRefIdempotent(t *testing.T) {
	ctx := context.Background()
	r, _, n := newTestResolver(ctx, t)

	rec := mustNormalize(t, n, map[string]string{
		"id":   "c-2",
		"name": "Dana White",
	}, "manual")

	first, err := r.Resolve(ctx, rec, store.PersonKind)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, rec, store.PersonKind)
	require.NoError(t, err)
	require.Equal(t, first.EntityID, second.EntityID)
	require.False(t, second.Created)
	require.Equal(t, StatusMerged, second.Status)
	require.Zero(t, second.Phase)
}

func TestResolvePhase1EmailMatch(t *testing.T) {
	ctx := context.Background()
	r, st, n := newTestResolver(ctx, t)

	first := mustNormalize(t, n, map[string]string{
		"id":    "c-3",
		"name":  "Sarah Johnson",
		"email": "s.johnson@disa.mil",
	}, "manual")
	a, err := r.Resolve(ctx, first, store.PersonKind)
	require.NoError(t, err)

	// Same mailbox from a different source, different name casing.
	second := mustNormalize(t, n, map[string]string{
		"entity_id":     "sam-77",
		"contact_name":  "S. Johnson",
		"contact_email": "S.Johnson@DISA.MIL",
	}, "sam.gov")
	b, err := r.Resolve(ctx, second, store.PersonKind)
	require.NoError(t, err)

	require.Equal(t, a.EntityID, b.EntityID)
	require.Equal(t, StatusMerged, b.Status)
	require.Equal(t, 1.0, b.Confidence)
	require.Equal(t, 1, b.Phase)

	refs, err := st.ListEntitySources(ctx, a.EntityID)
	require.NoError(t, err)
	require.Len(t, refs, 2)
}

func TestResolvePhase2AbbreviationExpansion(t *testing.T) {
	ctx := context.Background()
	r, _, n := newTestResolver(ctx, t)

	first := mustNormalize(t, n, map[string]string{
		"id":           "c-4",
		"name":         "Robert Chen",
		"title":        "Contract Specialist",
		"location":     "Fort Meade",
		"organization": "Defense Information Systems Agency",
	}, "manual")
	a, err := r.Resolve(ctx, first, store.PersonKind)
	require.NoError(t, err)

	second := mustNormalize(t, n, map[string]string{
		"record_id":          "fpds-12",
		"poc_name":           "Robert Chen",
		"poc_title":          "Contract Specialist",
		"place_of_performance": "Fort Meade",
		"contracting_office": "DISA",
	}, "fpds")
	b, err := r.Resolve(ctx, second, store.PersonKind)
	require.NoError(t, err)

	// The normalizer expanded DISA, so the organization components line up
	// and the pair merges.
	require.Equal(t, a.EntityID, b.EntityID)
	require.Equal(t, StatusMerged, b.Status)
}

func TestResolveNeedsReviewBand(t *testing.T) {
	ctx := context.Background()
	r, st, n := newTestResolver(ctx, t)

	first := mustNormalize(t, n, map[string]string{
		"id":       "c-5",
		"name":     "Jonathan Smithson",
		"title":    "Program Manager",
		"location": "Fort Meade",
	}, "manual")
	_, err := r.Resolve(ctx, first, store.PersonKind)
	require.NoError(t, err)

	// Close name, same title and location, no deterministic identifier and
	// no employer evidence: lands in the review band.
	second := mustNormalize(t, n, map[string]string{
		"id":       "c-6",
		"name":     "Jonathon Smithson",
		"title":    "Program Manager",
		"location": "Fort Meade",
	}, "manual")
	b, err := r.Resolve(ctx, second, store.PersonKind)
	require.NoError(t, err)

	require.True(t, b.Created)
	require.Equal(t, StatusNeedsReview, b.Status)
	require.GreaterOrEqual(t, b.Confidence, 0.6)
	require.Less(t, b.Confidence, 0.8)

	entity, err := st.GetEntity(ctx, b.EntityID)
	require.NoError(t, err)
	require.True(t, entity.NeedsReview)
}

func TestResolvePhase3GraphPromotion(t *testing.T) {
	ctx := context.Background()
	r, _, n := newTestResolver(ctx, t)

	first := mustNormalize(t, n, map[string]string{
		"id":           "c-7",
		"name":         "Jonathan Smithson",
		"location":     "Fort Meade",
		"organization": "DISA",
	}, "manual")
	a, err := r.Resolve(ctx, first, store.PersonKind)
	require.NoError(t, err)

	// Probabilistic score lands just under the merge threshold; the shared
	// employer in the graph promotes the pair over it.
	second := mustNormalize(t, n, map[string]string{
		"entity_id":    "sam-80",
		"contact_name": "Jonathon Smithson",
		"city":         "Fort Meade",
		"agency_name":  "Defense Information Systems Agency",
	}, "sam.gov")
	b, err := r.Resolve(ctx, second, store.PersonKind)
	require.NoError(t, err)

	require.Equal(t, a.EntityID, b.EntityID)
	require.Equal(t, StatusMerged, b.Status)
	require.Equal(t, 3, b.Phase)
	require.GreaterOrEqual(t, b.Confidence, 0.8)
}

func TestResolveCollapsesDeterministicDoubleMatch(t *testing.T) {
	ctx := context.Background()
	r, st, n := newTestResolver(ctx, t)

	byEmail := mustNormalize(t, n, map[string]string{
		"id":    "c-8",
		"name":  "Maria Alvarez",
		"email": "m.alvarez@gsa.gov",
	}, "manual")
	a, err := r.Resolve(ctx, byEmail, store.PersonKind)
	require.NoError(t, err)

	byPhone := mustNormalize(t, n, map[string]string{
		"id":    "c-9",
		"name":  "M Alvarez",
		"phone": "(202) 555-0100",
	}, "manual")
	b, err := r.Resolve(ctx, byPhone, store.PersonKind)
	require.NoError(t, err)
	require.NotEqual(t, a.EntityID, b.EntityID)

	// A record carrying both identifiers proves the two entities are one.
	bridge := mustNormalize(t, n, map[string]string{
		"entity_id":     "sam-90",
		"contact_name":  "Maria Alvarez",
		"contact_email": "m.alvarez@gsa.gov",
		"contact_phone": "202-555-0100",
	}, "sam.gov")
	c, err := r.Resolve(ctx, bridge, store.PersonKind)
	require.NoError(t, err)
	require.Equal(t, a.EntityID, c.EntityID)
	require.Equal(t, 1, c.Phase)

	// The loser is tombstoned and redirects to the winner.
	merged, err := st.GetEntity(ctx, b.EntityID)
	require.NoError(t, err)
	require.Equal(t, a.EntityID, merged.ID)

	refs, err := st.ListEntitySources(ctx, a.EntityID)
	require.NoError(t, err)
	require.Len(t, refs, 3)
}

func TestResolveOrganizationKind(t *testing.T) {
	ctx := context.Background()
	r, st, n := newTestResolver(ctx, t)

	first := mustNormalize(t, n, map[string]string{
		"id":   "org-1",
		"name": "DISA",
	}, "manual")
	a, err := r.Resolve(ctx, first, store.OrganizationKind)
	require.NoError(t, err)
	require.True(t, a.Created)

	entity, err := st.GetEntity(ctx, a.EntityID)
	require.NoError(t, err)
	require.Equal(t, "Defense Information Systems Agency", entity.Organization.Name)
	require.Equal(t, "DISA", entity.Organization.Abbreviation)

	third := mustNormalize(t, n, map[string]string{
		"record_id": "fpds-org-3",
		"poc_name":  "Defense Information Systems Agency",
	}, "fpds")
	c, err := r.Resolve(ctx, third, store.OrganizationKind)
	require.NoError(t, err)
	require.Equal(t, a.EntityID, c.EntityID)
	require.Equal(t, StatusMerged, c.Status)
	require.Equal(t, 1, c.Phase)
}

func TestNameSimilarity(t *testing.T) {
	require.Equal(t, 1.0, nameSimilarity("sarah johnson", "sarah johnson"))
	require.Zero(t, nameSimilarity("", "sarah johnson"))
	require.Zero(t, nameSimilarity("", ""))
	require.InDelta(t, 0.941, nameSimilarity("jonathan smithson", "jonathon smithson"), 0.001)
	require.Less(t, nameSimilarity("sarah johnson", "robert chen"), 0.3)
}

func TestTokenOverlap(t *testing.T) {
	require.Equal(t, 1.0, tokenOverlap("Program Manager", "program manager"))
	require.Equal(t, 0.0, tokenOverlap("", "program manager"))
	require.InDelta(t, 0.25, tokenOverlap("senior program manager", "program lead"), 0.001)
}
