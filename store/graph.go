package store

import (
	"context"
)

// Neighbor pairs an adjacent entity with the edge reaching it.
type Neighbor struct {
	Entity *Entity
	Edge   *Edge
}

// PathStep is one hop of a graph path. Edge is nil on the first step.
type PathStep struct {
	Entity *Entity
	Edge   *Edge
}

// Neighbors returns the entities adjacent to id over edges of the given
// types. An empty types slice matches every edge type. Archived neighbors
// are skipped unless they are merge tombstones, which redirect to their
// surviving entity.
func (s *Store) Neighbors(ctx context.Context, id int32, types []EdgeType, direction EdgeDirection) ([]*Neighbor, error) {
	edges, err := s.edgesTouching(ctx, id, types, direction)
	if err != nil {
		return nil, err
	}

	neighbors := make([]*Neighbor, 0, len(edges))
	seen := make(map[int32]bool)
	for _, edge := range edges {
		otherID := edge.ToID
		if otherID == id {
			otherID = edge.FromID
		}
		entity, err := s.GetEntity(ctx, otherID)
		if err != nil {
			return nil, err
		}
		if entity == nil || entity.RowStatus == Archived || seen[entity.ID] {
			continue
		}
		seen[entity.ID] = true
		neighbors = append(neighbors, &Neighbor{Entity: entity, Edge: edge})
	}
	return neighbors, nil
}

// SharedNeighbors returns ids of entities adjacent to both a and b over any
// edge type.
func (s *Store) SharedNeighbors(ctx context.Context, a, b int32) ([]int32, error) {
	edgesA, err := s.edgesTouching(ctx, a, nil, DirectionBoth)
	if err != nil {
		return nil, err
	}
	edgesB, err := s.edgesTouching(ctx, b, nil, DirectionBoth)
	if err != nil {
		return nil, err
	}

	adjacentA := make(map[int32]bool)
	for _, edge := range edgesA {
		adjacentA[edgeOther(edge, a)] = true
	}

	var shared []int32
	seen := make(map[int32]bool)
	for _, edge := range edgesB {
		otherID := edgeOther(edge, b)
		if otherID == a || otherID == b || seen[otherID] {
			continue
		}
		if adjacentA[otherID] {
			shared = append(shared, otherID)
			seen[otherID] = true
		}
	}
	return shared, nil
}

// ShortestPath runs a breadth-first search from one entity to another and
// returns the ordered steps, or nil when the target is unreachable within
// maxHops.
func (s *Store) ShortestPath(ctx context.Context, fromID, toID int32, maxHops int) ([]*PathStep, error) {
	if maxHops <= 0 {
		maxHops = 5
	}
	if fromID == toID {
		entity, err := s.GetEntity(ctx, fromID)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			return nil, nil
		}
		return []*PathStep{{Entity: entity}}, nil
	}

	visited := map[int32]bfsVisit{fromID: {}}
	frontier := []int32{fromID}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []int32
		for _, id := range frontier {
			edges, err := s.edgesTouching(ctx, id, nil, DirectionBoth)
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				otherID := edgeOther(edge, id)
				if _, ok := visited[otherID]; ok {
					continue
				}
				prev := id
				visited[otherID] = bfsVisit{prev: &prev, edge: edge}
				if otherID == toID {
					return s.assemblePath(ctx, visited, fromID, toID)
				}
				next = append(next, otherID)
			}
		}
		frontier = next
	}
	return nil, nil
}

func (s *Store) assemblePath(ctx context.Context, visited map[int32]bfsVisit, fromID, toID int32) ([]*PathStep, error) {
	// Walk back from the target, then reverse.
	var reversed []*PathStep
	id := toID
	for {
		v := visited[id]
		entity, err := s.GetEntity(ctx, id)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			return nil, nil
		}
		reversed = append(reversed, &PathStep{Entity: entity, Edge: v.edge})
		if v.prev == nil {
			break
		}
		id = *v.prev
	}

	steps := make([]*PathStep, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		steps = append(steps, reversed[i])
	}
	return steps, nil
}

type bfsVisit struct {
	prev *int32
	edge *Edge
}

func (s *Store) edgesTouching(ctx context.Context, id int32, types []EdgeType, direction EdgeDirection) ([]*Edge, error) {
	find := &FindEdge{Types: types}
	switch direction {
	case DirectionOut:
		find.FromID = &id
	case DirectionIn:
		find.ToID = &id
	default:
		find.EitherID = &id
	}
	return s.driver.ListEdges(ctx, find)
}

func edgeOther(edge *Edge, id int32) int32 {
	if edge.FromID == id {
		return edge.ToID
	}
	return edge.FromID
}
