package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/capturelab/capture/store"
)

func (d *DB) CreateOpportunity(ctx context.Context, create *store.Opportunity) (*store.Opportunity, error) {
	stmt := `INSERT INTO opportunity (uid, title, agency_id, naics_code, value_estimate, deadline_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.Title, create.AgencyID, create.NAICSCode, create.ValueEstimate, create.DeadlineTs,
	).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}
	return create, nil
}

func (d *DB) ListOpportunities(ctx context.Context, find *store.FindOpportunity) ([]*store.Opportunity, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "opportunity.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "opportunity.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.AgencyID; v != nil {
		where, args = append(where, "opportunity.agency_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, uid, title, agency_id, naics_code, value_estimate, deadline_ts, created_ts
		FROM opportunity
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY opportunity.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Opportunity, 0)
	for rows.Next() {
		var opportunity store.Opportunity
		var deadlineTs sql.NullInt64
		if err := rows.Scan(
			&opportunity.ID,
			&opportunity.UID,
			&opportunity.Title,
			&opportunity.AgencyID,
			&opportunity.NAICSCode,
			&opportunity.ValueEstimate,
			&deadlineTs,
			&opportunity.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		if deadlineTs.Valid {
			opportunity.DeadlineTs = &deadlineTs.Int64
		}
		list = append(list, &opportunity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate opportunities: %w", err)
	}
	return list, nil
}
