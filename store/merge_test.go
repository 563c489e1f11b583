package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capturelab/capture/store"
	storetest "github.com/capturelab/capture/store/test"
)

func TestMergeRepointsEdgesAndTombstones(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	winner := createTestPerson(ctx, t, st, "Sarah Johnson", "sjohnson@disa.mil")
	loser := createTestPerson(ctx, t, st, "S. Johnson", "")
	agency := createTestOrganization(ctx, t, st, "Defense Information Systems Agency")
	colleague := createTestPerson(ctx, t, st, "Robert Chen", "rchen@disa.mil")

	upsertTestEdge(ctx, t, st, loser.ID, agency.ID, store.EdgeWorksAt, store.StrengthMedium, 0.9)
	upsertTestEdge(ctx, t, st, colleague.ID, loser.ID, store.EdgeMetAt, store.StrengthWeak, 0.7)

	require.NoError(t, st.Merge(ctx, &store.MergeEntities{
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Update:   &store.UpdateEntity{ID: winner.ID},
	}))

	// The loser's edges now touch the winner.
	edges, err := st.ListEdges(ctx, &store.FindEdge{EitherID: &winner.ID})
	require.NoError(t, err)
	require.Len(t, edges, 2)
	for _, edge := range edges {
		require.NotEqual(t, loser.ID, edge.FromID)
		require.NotEqual(t, loser.ID, edge.ToID)
	}

	// The loser's source refs moved to the winner.
	refs, err := st.ListEntitySources(ctx, winner.ID)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	// A stale loser id redirects to the surviving golden record.
	redirected, err := st.GetEntity(ctx, loser.ID)
	require.NoError(t, err)
	require.NotNil(t, redirected)
	require.Equal(t, winner.ID, redirected.ID)

	// The tombstone itself is archived and points at the winner.
	archived := store.Archived
	tombstones, err := st.ListEntities(ctx, &store.FindEntity{ID: &loser.ID, RowStatus: &archived})
	require.NoError(t, err)
	require.Len(t, tombstones, 1)
	require.NotNil(t, tombstones[0].MergedIntoID)
	require.Equal(t, winner.ID, *tombstones[0].MergedIntoID)
}

func TestMergeCollapsesDuplicateEdges(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	winner := createTestPerson(ctx, t, st, "Dana White", "dwhite@dha.mil")
	loser := createTestPerson(ctx, t, st, "D. White", "")
	agency := createTestOrganization(ctx, t, st, "Defense Health Agency")

	upsertTestEdge(ctx, t, st, winner.ID, agency.ID, store.EdgeWorksAt, store.StrengthWeak, 0.5)
	upsertTestEdge(ctx, t, st, loser.ID, agency.ID, store.EdgeWorksAt, store.StrengthStrong, 0.9)

	require.NoError(t, st.Merge(ctx, &store.MergeEntities{
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Update:   &store.UpdateEntity{ID: winner.ID},
	}))

	edges, err := st.ListEdges(ctx, &store.FindEdge{FromID: &winner.ID})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, store.StrengthStrong, edges[0].Strength)
	require.Equal(t, 0.9, edges[0].Confidence)
}

func TestMergeDropsEdgeBetweenThePair(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	winner := createTestPerson(ctx, t, st, "Sam Lee", "slee@dhs.gov")
	loser := createTestPerson(ctx, t, st, "Samuel Lee", "")
	upsertTestEdge(ctx, t, st, winner.ID, loser.ID, store.EdgePeer, store.StrengthWeak, 0.5)

	require.NoError(t, st.Merge(ctx, &store.MergeEntities{
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Update:   &store.UpdateEntity{ID: winner.ID},
	}))

	edges, err := st.ListEdges(ctx, &store.FindEdge{EitherID: &winner.ID})
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestMergeSelfRejected(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	person := createTestPerson(ctx, t, st, "Maria Alvarez", "malvarez@doe.gov")
	err := st.Merge(ctx, &store.MergeEntities{WinnerID: person.ID, LoserID: person.ID})
	require.Error(t, err)
}
