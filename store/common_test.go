package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/capturelab/capture/store"
)

func createTestPerson(ctx context.Context, t *testing.T, st *store.Store, name, email string) *store.Entity {
	entity, err := st.CreateEntity(ctx, &store.Entity{
		UID:        shortuuid.New(),
		Kind:       store.PersonKind,
		Confidence: 1.0,
		Sources:    []store.SourceRef{{Source: "manual", LocalID: strings.ToLower(name)}},
		Person: &store.PersonPayload{
			DisplayName: name,
			MatchName:   strings.ToLower(name),
			Email:       email,
		},
	})
	require.NoError(t, err)
	return entity
}

func createTestOrganization(ctx context.Context, t *testing.T, st *store.Store, name string) *store.Entity {
	entity, err := st.CreateEntity(ctx, &store.Entity{
		UID:        shortuuid.New(),
		Kind:       store.OrganizationKind,
		Confidence: 1.0,
		Sources:    []store.SourceRef{{Source: "manual", LocalID: "org:" + strings.ToLower(name)}},
		Organization: &store.OrganizationPayload{
			Name:      name,
			MatchName: strings.ToLower(name),
			OrgType:   store.OrgFederalAgency,
		},
	})
	require.NoError(t, err)
	return entity
}

func upsertTestEdge(ctx context.Context, t *testing.T, st *store.Store, fromID, toID int32, edgeType store.EdgeType, strength store.EdgeStrength, confidence float64) *store.Edge {
	edge, err := st.UpsertEdge(ctx, &store.Edge{
		FromID:     fromID,
		ToID:       toID,
		Type:       edgeType,
		Strength:   strength,
		Source:     "manual",
		Confidence: confidence,
	})
	require.NoError(t, err)
	return edge
}
