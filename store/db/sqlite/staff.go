package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/capturelab/capture/store"
)

func (d *DB) UpsertStaffMember(ctx context.Context, upsert *store.StaffMember) (*store.StaffMember, error) {
	certifications, err := json.Marshal(upsert.Certifications)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal certifications: %w", err)
	}
	skills, err := json.Marshal(upsert.Skills)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal skills: %w", err)
	}

	stmt := `INSERT INTO staff_member (uid, name, clearance, certifications, skills, experience_years, availability)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET
			name = excluded.name,
			clearance = excluded.clearance,
			certifications = excluded.certifications,
			skills = excluded.skills,
			experience_years = excluded.experience_years,
			availability = excluded.availability,
			updated_ts = strftime('%s', 'now')
		RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UID, upsert.Name, upsert.Clearance, string(certifications), string(skills),
		upsert.ExperienceYears, string(availabilityOrDefault(upsert.Availability)),
	).Scan(
		&upsert.ID,
		&upsert.CreatedTs,
		&upsert.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert staff member: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListStaffMembers(ctx context.Context, find *store.FindStaffMember) ([]*store.StaffMember, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "staff_member.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "staff_member.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Availability; v != nil {
		where, args = append(where, "staff_member.availability = "+placeholder(len(args)+1)), append(args, string(*v))
	}

	query := `SELECT id, uid, name, clearance, certifications, skills, experience_years, availability, created_ts, updated_ts
		FROM staff_member
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY staff_member.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff members: %w", err)
	}
	defer rows.Close()

	list := make([]*store.StaffMember, 0)
	for rows.Next() {
		var member store.StaffMember
		var certifications, skills string
		if err := rows.Scan(
			&member.ID,
			&member.UID,
			&member.Name,
			&member.Clearance,
			&certifications,
			&skills,
			&member.ExperienceYears,
			&member.Availability,
			&member.CreatedTs,
			&member.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		if err := json.Unmarshal([]byte(certifications), &member.Certifications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal certifications: %w", err)
		}
		if err := json.Unmarshal([]byte(skills), &member.Skills); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skills: %w", err)
		}
		list = append(list, &member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff members: %w", err)
	}
	return list, nil
}

func availabilityOrDefault(a store.Availability) store.Availability {
	if a == "" {
		return store.Available
	}
	return a
}
