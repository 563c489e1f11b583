package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	storetest "github.com/capturelab/capture/store/test"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	// The fixture already migrated once; a second run must leave the
	// initialized schema alone.
	require.NoError(t, st.Migrate(ctx))

	person := createTestPerson(ctx, t, st, "Sarah Johnson", "sjohnson@disa.mil")
	require.NotZero(t, person.ID)
}
