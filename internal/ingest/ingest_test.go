package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capturelab/capture/internal/normalize"
	"github.com/capturelab/capture/internal/resolver"
	"github.com/capturelab/capture/store"
	storetest "github.com/capturelab/capture/store/test"
)

func newRunner(t *testing.T, st *store.Store, opts Options) *Runner {
	n := normalize.New(normalize.DefaultRegistry())
	r := resolver.New(st, resolver.Options{})
	return New(n, r, opts)
}

func TestRunCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	runner := newRunner(t, st, Options{Workers: 1})

	records := []map[string]string{
		{"id": "m-1", "name": "Sarah Johnson", "email": "sjohnson@disa.mil", "organization": "DISA"},
		{"id": "m-2", "name": "S. Johnson", "email": "sjohnson@disa.mil"},
		{"name": "No Local ID"},
	}
	report, err := runner.Run(ctx, store.PersonKind, "manual", records)
	require.NoError(t, err)

	require.Equal(t, 3, report.Processed)
	require.Equal(t, 1, report.Created)
	require.Equal(t, 1, report.Merged)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, report.NeedsReview)
}

func TestRunReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	runner := newRunner(t, st, Options{Workers: 1})

	records := []map[string]string{
		{"id": "m-1", "name": "Robert Chen", "email": "rchen@gsa.gov"},
		{"id": "m-2", "name": "Dana White", "email": "dwhite@gsa.gov"},
	}
	first, err := runner.Run(ctx, store.PersonKind, "manual", records)
	require.NoError(t, err)
	require.Equal(t, 2, first.Created)

	second, err := runner.Run(ctx, store.PersonKind, "manual", records)
	require.NoError(t, err)
	require.Equal(t, 0, second.Created)
	require.Equal(t, 2, second.Merged)

	normal := store.Normal
	kind := store.PersonKind
	entities, err := st.ListEntities(ctx, &store.FindEntity{Kind: &kind, RowStatus: &normal})
	require.NoError(t, err)
	require.Len(t, entities, 2)
}

func TestRunUnsupportedSchemaFailsTheRun(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	runner := newRunner(t, st, Options{Workers: 1})

	_, err := runner.Run(ctx, store.PersonKind, "mystery-export", []map[string]string{{"id": "1"}})
	require.ErrorIs(t, err, normalize.ErrUnsupportedSource)
}

func TestRunConcurrentWorkers(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)
	runner := newRunner(t, st, Options{Workers: 4, RatePerSec: 100})

	var records []map[string]string
	for i := 0; i < 8; i++ {
		records = append(records, map[string]string{
			"id":    fmt.Sprintf("m-%d", i),
			"name":  fmt.Sprintf("Contact Number%d", i),
			"email": fmt.Sprintf("contact%d@agency.gov", i),
		})
	}
	report, err := runner.Run(ctx, store.PersonKind, "manual", records)
	require.NoError(t, err)
	require.Equal(t, 8, report.Processed)
	require.Equal(t, 8, report.Created)
	require.Equal(t, 0, report.Skipped)
}
