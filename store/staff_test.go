package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capturelab/capture/store"
	storetest "github.com/capturelab/capture/store/test"
)

func TestUpsertStaffMemberRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := storetest.NewTestingStore(ctx, t)

	created, err := st.UpsertStaffMember(ctx, &store.StaffMember{
		UID:             "staff-1",
		Name:            "Maria Alvarez",
		Clearance:       "Top Secret",
		Certifications:  []string{"CISSP", "PMP"},
		Skills:          []string{"Kubernetes", "Terraform"},
		ExperienceYears: 12,
	})
	require.NoError(t, err)
	require.Equal(t, store.Available, created.Availability)

	// Upserting the same UID replaces the row instead of duplicating it.
	_, err = st.UpsertStaffMember(ctx, &store.StaffMember{
		UID:             "staff-1",
		Name:            "Maria Alvarez",
		Clearance:       "Top Secret",
		Skills:          []string{"Kubernetes"},
		ExperienceYears: 13,
		Availability:    store.Partial,
	})
	require.NoError(t, err)

	members, err := st.ListStaffMembers(ctx, &store.FindStaffMember{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, 13, members[0].ExperienceYears)
	require.Equal(t, store.Partial, members[0].Availability)
	require.Equal(t, []string{"Kubernetes"}, members[0].Skills)
	require.Empty(t, members[0].Certifications)
}
