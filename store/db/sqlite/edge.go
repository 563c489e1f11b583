package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/capturelab/capture/store"
)

func (d *DB) UpsertEdge(ctx context.Context, upsert *store.Edge) (*store.Edge, error) {
	// Verify both endpoints before writing so the caller gets the typed
	// error rather than a driver-specific constraint failure.
	var endpoints int
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entity WHERE id IN (?, ?)",
		upsert.FromID, upsert.ToID,
	).Scan(&endpoints); err != nil {
		return nil, fmt.Errorf("failed to check edge endpoints: %w", err)
	}
	want := 2
	if upsert.FromID == upsert.ToID {
		want = 1
	}
	if endpoints < want {
		return nil, store.ErrInvalidEdge
	}

	stmt := `INSERT INTO edge (from_id, to_id, type, strength, source, confidence)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (from_id, to_id, type) DO UPDATE SET
			strength = CASE WHEN excluded.confidence >= edge.confidence THEN excluded.strength ELSE edge.strength END,
			source = CASE WHEN excluded.confidence >= edge.confidence THEN excluded.source ELSE edge.source END,
			confidence = MAX(edge.confidence, excluded.confidence),
			updated_ts = strftime('%s', 'now')
		RETURNING id, from_id, to_id, type, strength, source, confidence, created_ts, updated_ts`

	edge := store.Edge{}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.FromID, upsert.ToID, string(upsert.Type),
		string(strengthOrDefault(upsert.Strength)), upsert.Source, upsert.Confidence,
	).Scan(
		&edge.ID,
		&edge.FromID,
		&edge.ToID,
		&edge.Type,
		&edge.Strength,
		&edge.Source,
		&edge.Confidence,
		&edge.CreatedTs,
		&edge.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert edge: %w", err)
	}
	return &edge, nil
}

func (d *DB) ListEdges(ctx context.Context, find *store.FindEdge) ([]*store.Edge, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "edge.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.FromID; v != nil {
		where, args = append(where, "edge.from_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ToID; v != nil {
		where, args = append(where, "edge.to_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.EitherID; v != nil {
		where = append(where, "(edge.from_id = "+placeholder(len(args)+1)+" OR edge.to_id = "+placeholder(len(args)+2)+")")
		args = append(args, *v, *v)
	}
	if len(find.Types) > 0 {
		list := []string{}
		for _, t := range find.Types {
			list = append(list, placeholder(len(args)+1))
			args = append(args, string(t))
		}
		where = append(where, "edge.type IN ("+strings.Join(list, ", ")+")")
	}
	if v := find.Source; v != nil {
		where, args = append(where, "edge.source = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, from_id, to_id, type, strength, source, confidence, created_ts, updated_ts
		FROM edge
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY edge.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Edge, 0)
	for rows.Next() {
		var edge store.Edge
		if err := rows.Scan(
			&edge.ID,
			&edge.FromID,
			&edge.ToID,
			&edge.Type,
			&edge.Strength,
			&edge.Source,
			&edge.Confidence,
			&edge.CreatedTs,
			&edge.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		list = append(list, &edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edges: %w", err)
	}
	return list, nil
}

func strengthOrDefault(s store.EdgeStrength) store.EdgeStrength {
	if s == "" {
		return store.StrengthWeak
	}
	return s
}
