package resolver

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/capturelab/capture/internal/normalize"
	"github.com/capturelab/capture/store"
)

// Field survivorship: the most-recently-updated non-null value wins, with
// ties broken by source priority (manual > sam.gov > fpds > inferred).

// survivorshipFromRecord builds the partial update that applies a newly
// ingested record to an existing golden record.
func (r *Resolver) survivorshipFromRecord(ctx context.Context, entity *store.Entity, rec *normalize.Record) (*store.UpdateEntity, error) {
	recTs := rec.ObservedTs
	if recTs == 0 {
		recTs = time.Now().Unix()
	}
	entityPriority, err := r.entityPriority(ctx, entity.ID)
	if err != nil {
		return nil, err
	}
	recWins := recTs > entity.UpdatedTs ||
		(recTs == entity.UpdatedTs && r.opts.Registry.Priority(rec.Source) >= entityPriority)

	pick := func(current, incoming string) *string {
		if incoming == "" || incoming == current {
			return nil
		}
		if current != "" && !recWins {
			return nil
		}
		return &incoming
	}

	update := &store.UpdateEntity{ID: entity.ID}
	switch {
	case entity.Kind == store.PersonKind && entity.Person != nil:
		p := entity.Person
		update.DisplayName = pick(p.DisplayName, rec.DisplayName)
		update.MatchName = pick(p.MatchName, rec.MatchName)
		update.Email = pick(p.Email, rec.Email)
		if update.Email != nil {
			valid := false
			update.InvalidEmail = &valid
		}
		if rec.InvalidEmail && p.Email == "" && rec.RawEmail != "" {
			flag := true
			update.RawEmail = &rec.RawEmail
			update.InvalidEmail = &flag
		}
		update.Phone = pick(p.Phone, rec.Phone)
		if update.Phone != nil {
			parsed := false
			update.UnparsedPhone = &parsed
		}
		if rec.UnparsedPhone && p.Phone == "" && rec.RawPhone != "" {
			flag := true
			update.RawPhone = &rec.RawPhone
			update.UnparsedPhone = &flag
		}
		update.LinkedInURL = pick(p.LinkedInURL, rec.LinkedInURL)
		update.Title = pick(p.Title, rec.Title)
		update.Location = pick(p.Location, rec.Location)
		update.Clearance = pick(p.Clearance, rec.Clearance)
		if role := roleFromString(rec.Role); rec.Role != "" && role != store.RoleUnknown &&
			(p.RoleType == store.RoleUnknown || recWins) {
			update.RoleType = &role
		}
		if rec.Influence != "" && recWins {
			influence := influenceFromString(rec.Influence)
			update.Influence = &influence
		}
	case entity.Kind == store.OrganizationKind && entity.Organization != nil:
		o := entity.Organization
		update.OrgName = pick(o.Name, rec.DisplayName)
		update.MatchName = pick(o.MatchName, rec.MatchName)
		update.Abbreviation = pick(o.Abbreviation, rec.Abbreviation)
		update.Location = pick(o.Location, rec.Location)
	}
	return update, nil
}

// survivorshipFromEntity builds the winner's update set for an entity-entity
// merge, pulling in each loser field that survives the recency rules.
func (r *Resolver) survivorshipFromEntity(ctx context.Context, winner, loser *store.Entity) (*store.UpdateEntity, error) {
	winnerPriority, err := r.entityPriority(ctx, winner.ID)
	if err != nil {
		return nil, err
	}
	loserPriority, err := r.entityPriority(ctx, loser.ID)
	if err != nil {
		return nil, err
	}
	loserWins := loser.UpdatedTs > winner.UpdatedTs ||
		(loser.UpdatedTs == winner.UpdatedTs && loserPriority > winnerPriority)

	pick := func(current, incoming string) *string {
		if incoming == "" || incoming == current {
			return nil
		}
		if current != "" && !loserWins {
			return nil
		}
		return &incoming
	}

	update := &store.UpdateEntity{ID: winner.ID}
	switch {
	case winner.Kind == store.PersonKind && winner.Person != nil && loser.Person != nil:
		w, l := winner.Person, loser.Person
		update.DisplayName = pick(w.DisplayName, l.DisplayName)
		update.MatchName = pick(w.MatchName, l.MatchName)
		update.Email = pick(w.Email, l.Email)
		update.Phone = pick(w.Phone, l.Phone)
		update.LinkedInURL = pick(w.LinkedInURL, l.LinkedInURL)
		update.Title = pick(w.Title, l.Title)
		update.Location = pick(w.Location, l.Location)
		update.Clearance = pick(w.Clearance, l.Clearance)
		if l.OrganizationID != nil && (w.OrganizationID == nil || loserWins) {
			update.OrganizationID = l.OrganizationID
		}
		if l.RoleType != store.RoleUnknown && (w.RoleType == store.RoleUnknown || loserWins) {
			update.RoleType = &l.RoleType
		}
		if loserWins && l.Influence != "" {
			update.Influence = &l.Influence
		}
	case winner.Kind == store.OrganizationKind && winner.Organization != nil && loser.Organization != nil:
		w, l := winner.Organization, loser.Organization
		update.OrgName = pick(w.Name, l.Name)
		update.MatchName = pick(w.MatchName, l.MatchName)
		update.Abbreviation = pick(w.Abbreviation, l.Abbreviation)
		update.Location = pick(w.Location, l.Location)
		if l.ParentID != nil && (w.ParentID == nil || loserWins) {
			update.ParentID = l.ParentID
		}
	}
	return update, nil
}

// entityPriority is the highest source priority among an entity's refs.
func (r *Resolver) entityPriority(ctx context.Context, id int32) (int, error) {
	refs, err := r.store.ListEntitySources(ctx, id)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list entity sources")
	}
	best := 0
	for _, ref := range refs {
		if p := r.opts.Registry.Priority(ref.Source); p > best {
			best = p
		}
	}
	return best, nil
}
