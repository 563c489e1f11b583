package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capturelab/capture/store"
	storetest "github.com/capturelab/capture/store/test"
)

func TestUpsertEdgeNoDuplicateTriple(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	person := createTestPerson(ctx, t, st, "Sarah Johnson", "sjohnson@disa.mil")
	agency := createTestOrganization(ctx, t, st, "Defense Information Systems Agency")

	upsertTestEdge(ctx, t, st, person.ID, agency.ID, store.EdgeWorksAt, store.StrengthWeak, 0.5)
	upsertTestEdge(ctx, t, st, person.ID, agency.ID, store.EdgeWorksAt, store.StrengthStrong, 0.9)

	edges, err := st.ListEdges(ctx, &store.FindEdge{FromID: &person.ID})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, store.StrengthStrong, edges[0].Strength)
	require.Equal(t, 0.9, edges[0].Confidence)
}

func TestUpsertEdgeKeepsHigherConfidence(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	person := createTestPerson(ctx, t, st, "Robert Chen", "rchen@gsa.gov")
	agency := createTestOrganization(ctx, t, st, "General Services Administration")

	upsertTestEdge(ctx, t, st, person.ID, agency.ID, store.EdgeWorksAt, store.StrengthStrong, 0.9)
	// A weaker observation of the same relationship must not degrade it.
	upsertTestEdge(ctx, t, st, person.ID, agency.ID, store.EdgeWorksAt, store.StrengthWeak, 0.4)

	edges, err := st.ListEdges(ctx, &store.FindEdge{FromID: &person.ID})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, store.StrengthStrong, edges[0].Strength)
	require.Equal(t, 0.9, edges[0].Confidence)
}

func TestUpsertEdgeDistinctTypesCoexist(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	person := createTestPerson(ctx, t, st, "Dana White", "dwhite@dha.mil")
	agency := createTestOrganization(ctx, t, st, "Defense Health Agency")

	upsertTestEdge(ctx, t, st, person.ID, agency.ID, store.EdgeWorksAt, store.StrengthMedium, 0.9)
	upsertTestEdge(ctx, t, st, person.ID, agency.ID, store.EdgeMetAt, store.StrengthWeak, 0.7)

	edges, err := st.ListEdges(ctx, &store.FindEdge{FromID: &person.ID})
	require.NoError(t, err)
	require.Len(t, edges, 2)
}

func TestUpsertEdgeInvalidEndpoint(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	person := createTestPerson(ctx, t, st, "Sam Lee", "slee@dhs.gov")
	_, err := st.UpsertEdge(ctx, &store.Edge{
		FromID:     person.ID,
		ToID:       9999,
		Type:       store.EdgeWorksAt,
		Strength:   store.StrengthWeak,
		Source:     "manual",
		Confidence: 0.5,
	})
	require.ErrorIs(t, err, store.ErrInvalidEdge)
}
