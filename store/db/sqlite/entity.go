package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/capturelab/capture/store"
)

// entityColumns is the scan order shared by every entity query.
const entityColumns = `
	id, uid, kind, row_status, confidence, needs_review, merged_into_id,
	created_ts, updated_ts,
	display_name, match_name, email, raw_email, invalid_email,
	phone, raw_phone, unparsed_phone, linkedin_url, title, location,
	organization_id, role_type, influence_level, clearance,
	org_name, abbreviation, org_type, parent_id`

func (d *DB) CreateEntity(ctx context.Context, create *store.Entity) (*store.Entity, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	person := create.Person
	if person == nil {
		person = &store.PersonPayload{}
	}
	org := create.Organization
	if org == nil {
		org = &store.OrganizationPayload{}
	}

	fields := []string{
		"uid", "kind", "row_status", "confidence", "needs_review",
		"display_name", "match_name", "email", "raw_email", "invalid_email",
		"phone", "raw_phone", "unparsed_phone", "linkedin_url", "title", "location",
		"organization_id", "role_type", "influence_level", "clearance",
		"org_name", "abbreviation", "org_type", "parent_id",
	}
	args := []any{
		create.UID, create.Kind, rowStatusOrDefault(create.RowStatus), create.Confidence, create.NeedsReview,
		person.DisplayName, matchNameFor(create), person.Email, person.RawEmail, person.InvalidEmail,
		person.Phone, person.RawPhone, person.UnparsedPhone, person.LinkedInURL, person.Title, locationFor(create),
		person.OrganizationID, roleTypeOrDefault(person.RoleType), influenceOrDefault(person.Influence), person.Clearance,
		org.Name, org.Abbreviation, orgTypeOrDefault(org.OrgType), org.ParentID,
	}

	stmt := `INSERT INTO entity (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts`
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create entity: %w", err)
	}

	for _, ref := range create.Sources {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO entity_source (entity_id, source, local_id) VALUES (?, ?, ?)",
			create.ID, ref.Source, ref.LocalID,
		); err != nil {
			return nil, fmt.Errorf("failed to create entity source: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if create.RowStatus == "" {
		create.RowStatus = store.Normal
	}
	return create, nil
}

func (d *DB) GetEntityBySourceRef(ctx context.Context, ref store.SourceRef) (*store.Entity, error) {
	query := `SELECT ` + entityColumns + `
		FROM entity
		WHERE id = (SELECT entity_id FROM entity_source WHERE source = ? AND local_id = ?)`
	rows, err := d.db.QueryContext(ctx, query, ref.Source, ref.LocalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity by source ref: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	entity, err := scanEntity(rows)
	if err != nil {
		return nil, err
	}
	return entity, rows.Err()
}

func (d *DB) ListEntities(ctx context.Context, find *store.FindEntity) ([]*store.Entity, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "entity.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "entity.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Kind; v != nil {
		where, args = append(where, "entity.kind = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "entity.row_status = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.NeedsReview; v != nil {
		where, args = append(where, "entity.needs_review = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Email; v != nil {
		where, args = append(where, "entity.email = "+placeholder(len(args)+1)+" AND entity.email != ''"), append(args, *v)
	}
	if v := find.Phone; v != nil {
		where, args = append(where, "entity.phone = "+placeholder(len(args)+1)+" AND entity.phone != ''"), append(args, *v)
	}
	if v := find.LinkedInURL; v != nil {
		where, args = append(where, "entity.linkedin_url = "+placeholder(len(args)+1)+" AND entity.linkedin_url != ''"), append(args, *v)
	}
	if v := find.MatchName; v != nil {
		where, args = append(where, "entity.match_name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OrganizationID; v != nil {
		where, args = append(where, "entity.organization_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Location; v != nil {
		where, args = append(where, "entity.location = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ParentID; v != nil {
		where, args = append(where, "entity.parent_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT ` + entityColumns + `
		FROM entity
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY entity.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Entity, 0)
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateEntity(ctx context.Context, update *store.UpdateEntity) (*store.Entity, error) {
	set, args := entityUpdateSet(update)
	args = append(args, update.ID)
	stmt := `UPDATE entity SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}

	list, err := d.ListEntities(ctx, &store.FindEntity{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("entity %d not found", update.ID)
	}
	return list[0], nil
}

// entityUpdateSet builds the SET clause for a partial entity update. The
// caller appends the id argument for the WHERE clause.
func entityUpdateSet(update *store.UpdateEntity) ([]string, []any) {
	set, args := []string{"updated_ts = strftime('%s', 'now')"}, []any{}

	if v := update.Confidence; v != nil {
		set, args = append(set, "confidence = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.NeedsReview; v != nil {
		set, args = append(set, "needs_review = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.UpdatedTs; v != nil {
		set[0] = "updated_ts = " + placeholder(len(args)+1)
		args = append(args, *v)
	}
	if v := update.DisplayName; v != nil {
		set, args = append(set, "display_name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.MatchName; v != nil {
		set, args = append(set, "match_name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Email; v != nil {
		set, args = append(set, "email = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RawEmail; v != nil {
		set, args = append(set, "raw_email = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.InvalidEmail; v != nil {
		set, args = append(set, "invalid_email = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Phone; v != nil {
		set, args = append(set, "phone = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RawPhone; v != nil {
		set, args = append(set, "raw_phone = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.UnparsedPhone; v != nil {
		set, args = append(set, "unparsed_phone = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.LinkedInURL; v != nil {
		set, args = append(set, "linkedin_url = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Location; v != nil {
		set, args = append(set, "location = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.OrganizationID; v != nil {
		set, args = append(set, "organization_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RoleType; v != nil {
		set, args = append(set, "role_type = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := update.Influence; v != nil {
		set, args = append(set, "influence_level = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := update.Clearance; v != nil {
		set, args = append(set, "clearance = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.OrgName; v != nil {
		set, args = append(set, "org_name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Abbreviation; v != nil {
		set, args = append(set, "abbreviation = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.OrgType; v != nil {
		set, args = append(set, "org_type = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := update.ParentID; v != nil {
		set, args = append(set, "parent_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	return set, args
}

func (d *DB) AddEntitySource(ctx context.Context, entityID int32, ref store.SourceRef) error {
	stmt := `INSERT INTO entity_source (entity_id, source, local_id) VALUES (?, ?, ?)
		ON CONFLICT (source, local_id) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, entityID, ref.Source, ref.LocalID); err != nil {
		return fmt.Errorf("failed to add entity source: %w", err)
	}
	return nil
}

func (d *DB) ListEntitySources(ctx context.Context, entityID int32) ([]store.SourceRef, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT source, local_id FROM entity_source WHERE entity_id = ? ORDER BY id ASC", entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity sources: %w", err)
	}
	defer rows.Close()

	refs := make([]store.SourceRef, 0)
	for rows.Next() {
		var ref store.SourceRef
		if err := rows.Scan(&ref.Source, &ref.LocalID); err != nil {
			return nil, fmt.Errorf("failed to scan entity source: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (d *DB) ArchiveEntity(ctx context.Context, id int32) error {
	stmt := `UPDATE entity SET row_status = ?, updated_ts = strftime('%s', 'now') WHERE id = ?`
	result, err := d.db.ExecContext(ctx, stmt, store.Archived, id)
	if err != nil {
		return fmt.Errorf("failed to archive entity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("entity not found")
	}
	return nil
}

// scanEntity scans the entityColumns row shape into a tagged-variant Entity.
func scanEntity(rows *sql.Rows) (*store.Entity, error) {
	var entity store.Entity
	var person store.PersonPayload
	var org store.OrganizationPayload
	var mergedIntoID, organizationID, parentID sql.NullInt32
	var roleType, influence, orgType string

	if err := rows.Scan(
		&entity.ID,
		&entity.UID,
		&entity.Kind,
		&entity.RowStatus,
		&entity.Confidence,
		&entity.NeedsReview,
		&mergedIntoID,
		&entity.CreatedTs,
		&entity.UpdatedTs,
		&person.DisplayName,
		&person.MatchName,
		&person.Email,
		&person.RawEmail,
		&person.InvalidEmail,
		&person.Phone,
		&person.RawPhone,
		&person.UnparsedPhone,
		&person.LinkedInURL,
		&person.Title,
		&person.Location,
		&organizationID,
		&roleType,
		&influence,
		&person.Clearance,
		&org.Name,
		&org.Abbreviation,
		&orgType,
		&parentID,
	); err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	if mergedIntoID.Valid {
		entity.MergedIntoID = &mergedIntoID.Int32
	}

	switch entity.Kind {
	case store.PersonKind:
		person.RoleType = store.RoleType(roleType)
		person.Influence = store.InfluenceLevel(influence)
		if organizationID.Valid {
			person.OrganizationID = &organizationID.Int32
		}
		entity.Person = &person
	case store.OrganizationKind:
		org.MatchName = person.MatchName
		org.Location = person.Location
		org.OrgType = store.OrgType(orgType)
		if parentID.Valid {
			org.ParentID = &parentID.Int32
		}
		entity.Organization = &org
	}
	return &entity, nil
}

func rowStatusOrDefault(s store.RowStatus) store.RowStatus {
	if s == "" {
		return store.Normal
	}
	return s
}

func roleTypeOrDefault(r store.RoleType) store.RoleType {
	if r == "" {
		return store.RoleUnknown
	}
	return r
}

func influenceOrDefault(i store.InfluenceLevel) store.InfluenceLevel {
	if i == "" {
		return store.InfluenceLow
	}
	return i
}

func orgTypeOrDefault(o store.OrgType) store.OrgType {
	if o == "" {
		return store.OrgUnknown
	}
	return o
}

func matchNameFor(entity *store.Entity) string {
	if entity.Kind == store.OrganizationKind && entity.Organization != nil {
		return entity.Organization.MatchName
	}
	if entity.Person != nil {
		return entity.Person.MatchName
	}
	return ""
}

func locationFor(entity *store.Entity) string {
	if entity.Kind == store.OrganizationKind && entity.Organization != nil {
		return entity.Organization.Location
	}
	if entity.Person != nil {
		return entity.Person.Location
	}
	return ""
}
