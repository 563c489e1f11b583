package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/capturelab/capture/store"
)

// MergeEntities merges the loser entity into the winner inside a single
// transaction: survivorship update, source-ref move, edge re-pointing with
// duplicate collapse, and a tombstone redirect on the loser. A concurrent
// reader sees either the pre-merge or the post-merge state.
func (d *DB) MergeEntities(ctx context.Context, merge *store.MergeEntities) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Apply the survivorship update to the winner.
	if merge.Update != nil {
		merge.Update.ID = merge.WinnerID
		set, args := entityUpdateSet(merge.Update)
		args = append(args, merge.WinnerID)
		stmt := `UPDATE entity SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("failed to update winner: %w", err)
		}
	}

	// 2. Move the loser's source refs to the winner.
	if _, err := tx.ExecContext(ctx,
		"UPDATE entity_source SET entity_id = ? WHERE entity_id = ?",
		merge.WinnerID, merge.LoserID,
	); err != nil {
		return fmt.Errorf("failed to move source refs: %w", err)
	}

	// 3. Re-point edges touching the loser, collapsing duplicates onto the
	// higher-confidence edge.
	if err := repointEdges(ctx, tx, merge.WinnerID, merge.LoserID); err != nil {
		return err
	}

	// 4. Tombstone the loser with a redirect.
	if _, err := tx.ExecContext(ctx,
		`UPDATE entity SET row_status = ?, merged_into_id = ?, updated_ts = strftime('%s', 'now') WHERE id = ?`,
		store.Archived, merge.WinnerID, merge.LoserID,
	); err != nil {
		return fmt.Errorf("failed to tombstone loser: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge: %w", err)
	}
	return nil
}

func repointEdges(ctx context.Context, tx *sql.Tx, winnerID, loserID int32) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, from_id, to_id, type, strength, confidence FROM edge WHERE from_id = ? OR to_id = ?`,
		loserID, loserID)
	if err != nil {
		return fmt.Errorf("failed to query loser edges: %w", err)
	}

	type loserEdge struct {
		id         int32
		fromID     int32
		toID       int32
		edgeType   string
		strength   string
		confidence float64
	}
	edges := []loserEdge{}
	for rows.Next() {
		var e loserEdge
		if err := rows.Scan(&e.id, &e.fromID, &e.toID, &e.edgeType, &e.strength, &e.confidence); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan loser edge: %w", err)
		}
		edges = append(edges, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate loser edges: %w", err)
	}

	for _, e := range edges {
		newFrom, newTo := e.fromID, e.toID
		if newFrom == loserID {
			newFrom = winnerID
		}
		if newTo == loserID {
			newTo = winnerID
		}
		// An edge between the pair being merged becomes a self-loop; drop it.
		if newFrom == newTo {
			if _, err := tx.ExecContext(ctx, "DELETE FROM edge WHERE id = ?", e.id); err != nil {
				return fmt.Errorf("failed to drop self-loop edge: %w", err)
			}
			continue
		}

		var existingID int32
		var existingConfidence float64
		err := tx.QueryRowContext(ctx,
			"SELECT id, confidence FROM edge WHERE from_id = ? AND to_id = ? AND type = ? AND id != ?",
			newFrom, newTo, e.edgeType, e.id,
		).Scan(&existingID, &existingConfidence)
		switch {
		case err == nil:
			// Duplicate after re-pointing: keep the higher-confidence version
			// on the surviving edge row, delete the loser's row.
			if e.confidence > existingConfidence {
				if _, err := tx.ExecContext(ctx,
					`UPDATE edge SET strength = ?, confidence = ?, updated_ts = strftime('%s', 'now') WHERE id = ?`,
					e.strength, e.confidence, existingID,
				); err != nil {
					return fmt.Errorf("failed to collapse duplicate edge: %w", err)
				}
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM edge WHERE id = ?", e.id); err != nil {
				return fmt.Errorf("failed to delete re-pointed edge: %w", err)
			}
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`UPDATE edge SET from_id = ?, to_id = ?, updated_ts = strftime('%s', 'now') WHERE id = ?`,
				newFrom, newTo, e.id,
			); err != nil {
				return fmt.Errorf("failed to re-point edge: %w", err)
			}
		default:
			return fmt.Errorf("failed to check duplicate edge: %w", err)
		}
	}
	return nil
}
