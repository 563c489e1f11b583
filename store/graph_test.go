package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capturelab/capture/store"
	storetest "github.com/capturelab/capture/store/test"
)

func TestNeighborsByDirection(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	person := createTestPerson(ctx, t, st, "Sarah Johnson", "sjohnson@disa.mil")
	manager := createTestPerson(ctx, t, st, "Robert Chen", "rchen@disa.mil")
	agency := createTestOrganization(ctx, t, st, "Defense Information Systems Agency")

	upsertTestEdge(ctx, t, st, person.ID, agency.ID, store.EdgeWorksAt, store.StrengthMedium, 0.9)
	upsertTestEdge(ctx, t, st, person.ID, manager.ID, store.EdgeReportsTo, store.StrengthMedium, 0.9)

	out, err := st.Neighbors(ctx, person.ID, nil, store.DirectionOut)
	require.NoError(t, err)
	require.Len(t, out, 2)

	in, err := st.Neighbors(ctx, agency.ID, nil, store.DirectionIn)
	require.NoError(t, err)
	require.Len(t, in, 1)
	require.Equal(t, person.ID, in[0].Entity.ID)

	typed, err := st.Neighbors(ctx, person.ID, []store.EdgeType{store.EdgeReportsTo}, store.DirectionBoth)
	require.NoError(t, err)
	require.Len(t, typed, 1)
	require.Equal(t, manager.ID, typed[0].Entity.ID)
}

func TestSharedNeighbors(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	a := createTestPerson(ctx, t, st, "Sarah Johnson", "sjohnson@disa.mil")
	b := createTestPerson(ctx, t, st, "S. Johnson", "")
	agency := createTestOrganization(ctx, t, st, "Defense Information Systems Agency")
	other := createTestOrganization(ctx, t, st, "General Services Administration")

	upsertTestEdge(ctx, t, st, a.ID, agency.ID, store.EdgeWorksAt, store.StrengthMedium, 0.9)
	upsertTestEdge(ctx, t, st, b.ID, agency.ID, store.EdgeWorksAt, store.StrengthMedium, 0.9)
	upsertTestEdge(ctx, t, st, b.ID, other.ID, store.EdgeMetAt, store.StrengthWeak, 0.7)

	shared, err := st.SharedNeighbors(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Equal(t, []int32{agency.ID}, shared)
}

func TestShortestPath(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	a := createTestPerson(ctx, t, st, "Sarah Johnson", "sjohnson@disa.mil")
	agency := createTestOrganization(ctx, t, st, "Defense Information Systems Agency")
	b := createTestPerson(ctx, t, st, "Robert Chen", "rchen@disa.mil")
	stranger := createTestPerson(ctx, t, st, "Sam Lee", "slee@dhs.gov")

	upsertTestEdge(ctx, t, st, a.ID, agency.ID, store.EdgeWorksAt, store.StrengthMedium, 0.9)
	upsertTestEdge(ctx, t, st, b.ID, agency.ID, store.EdgeWorksAt, store.StrengthMedium, 0.9)

	steps, err := st.ShortestPath(ctx, a.ID, b.ID, 5)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	require.Equal(t, a.ID, steps[0].Entity.ID)
	require.Nil(t, steps[0].Edge)
	require.Equal(t, agency.ID, steps[1].Entity.ID)
	require.Equal(t, b.ID, steps[2].Entity.ID)

	unreachable, err := st.ShortestPath(ctx, a.ID, stranger.ID, 5)
	require.NoError(t, err)
	require.Nil(t, unreachable)

	self, err := st.ShortestPath(ctx, a.ID, a.ID, 5)
	require.NoError(t, err)
	require.Len(t, self, 1)
}
