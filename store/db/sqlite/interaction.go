package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/capturelab/capture/store"
)

func (d *DB) CreateInteraction(ctx context.Context, create *store.Interaction) (*store.Interaction, error) {
	fields := []string{"contact_id", "occurred_ts", "type", "outcome", "note", "next_action", "next_action_ts", "amends_id"}
	args := []any{
		create.ContactID, create.OccurredTs, string(create.Type), string(outcomeOrDefault(create.Outcome)),
		create.Note, create.NextAction, create.NextActionTs, create.AmendsID,
	}

	stmt := `INSERT INTO interaction (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create interaction: %w", err)
	}
	return create, nil
}

func (d *DB) ListInteractions(ctx context.Context, find *store.FindInteraction) ([]*store.Interaction, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "interaction.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ContactID; v != nil {
		where, args = append(where, "interaction.contact_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.ContactIDs) > 0 {
		list := []string{}
		for _, id := range find.ContactIDs {
			list = append(list, placeholder(len(args)+1))
			args = append(args, id)
		}
		where = append(where, "interaction.contact_id IN ("+strings.Join(list, ", ")+")")
	}
	if v := find.Type; v != nil {
		where, args = append(where, "interaction.type = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.SinceTs; v != nil {
		where, args = append(where, "interaction.occurred_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, contact_id, occurred_ts, type, outcome, note, next_action, next_action_ts, amends_id, created_ts
		FROM interaction
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY interaction.occurred_ts DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Interaction, 0)
	for rows.Next() {
		var interaction store.Interaction
		var nextActionTs, amendsID sql.NullInt64
		if err := rows.Scan(
			&interaction.ID,
			&interaction.ContactID,
			&interaction.OccurredTs,
			&interaction.Type,
			&interaction.Outcome,
			&interaction.Note,
			&interaction.NextAction,
			&nextActionTs,
			&amendsID,
			&interaction.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		if nextActionTs.Valid {
			interaction.NextActionTs = &nextActionTs.Int64
		}
		if amendsID.Valid {
			id := int32(amendsID.Int64)
			interaction.AmendsID = &id
		}
		list = append(list, &interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	return list, nil
}

func outcomeOrDefault(o store.InteractionOutcome) store.InteractionOutcome {
	if o == "" {
		return store.OutcomeNeutral
	}
	return o
}
