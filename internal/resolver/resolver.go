// Package resolver decides whether an ingested record refers to an entity
// the store already knows, merging it into the golden record when it does.
// Matching runs in three phases: deterministic identifiers, a weighted
// probabilistic score, and graph-based confirmation for the ambiguous band.
package resolver

import (
	"context"
	"math"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/capturelab/capture/internal/normalize"
	"github.com/capturelab/capture/store"
)

// Status is the outcome class of a resolution. Ambiguity is a status, not an
// error; ingestion must keep running while humans adjudicate.
type Status string

const (
	StatusCreated     Status = "created"
	StatusMerged      Status = "merged"
	StatusNeedsReview Status = "needs_review"
)

// Resolution reports where a record ended up.
type Resolution struct {
	EntityID   int32
	UID        string
	Created    bool
	Status     Status
	Confidence float64
	// Phase is the matching phase that decided the outcome: 1 deterministic,
	// 2 probabilistic, 3 graph confirmation. Zero when the source ref had
	// already been ingested.
	Phase int
}

type Options struct {
	// MergeThreshold is the probabilistic score at or above which a record
	// is merged automatically.
	MergeThreshold float64
	// ReviewFloor is the score at or above which an ambiguous pair is
	// flagged for review instead of silently becoming a new entity.
	ReviewFloor float64
	// GraphBoostCap bounds the total confidence added by shared neighbors.
	GraphBoostCap float64
	// Registry supplies source priorities for field survivorship.
	Registry *normalize.Registry
}

type Resolver struct {
	store *store.Store
	opts  Options
}

func New(st *store.Store, opts Options) *Resolver {
	if opts.MergeThreshold == 0 {
		opts.MergeThreshold = 0.8
	}
	if opts.ReviewFloor == 0 {
		opts.ReviewFloor = 0.6
	}
	if opts.GraphBoostCap == 0 {
		opts.GraphBoostCap = 0.4
	}
	if opts.Registry == nil {
		opts.Registry = normalize.DefaultRegistry()
	}
	return &Resolver{store: st, opts: opts}
}

// Resolve matches a normalized record against the store and either merges it
// into an existing entity or creates a new one. Re-ingesting a source ref
// that is already known short-circuits to the owning entity.
func (r *Resolver) Resolve(ctx context.Context, rec *normalize.Record, kind store.EntityKind) (*Resolution, error) {
	ref := store.SourceRef{Source: rec.Source, LocalID: rec.LocalID}
	existing, err := r.store.GetEntityBySourceRef(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up source ref")
	}
	if existing != nil {
		if existing.MergedIntoID != nil {
			existing, err = r.store.GetEntity(ctx, existing.ID)
			if err != nil {
				return nil, errors.Wrap(err, "failed to follow merge redirect")
			}
			if existing == nil {
				return nil, errors.Errorf("source ref %s/%s points at a dangling merge chain", ref.Source, ref.LocalID)
			}
		}
		return &Resolution{
			EntityID:   existing.ID,
			UID:        existing.UID,
			Status:     StatusMerged,
			Confidence: existing.Confidence,
		}, nil
	}

	// Resolve the employer reference up front; the deterministic triple and
	// graph confirmation both need it.
	var orgID *int32
	if kind == store.PersonKind && rec.OrganizationMatch != "" {
		org, err := r.findOrganization(ctx, rec.OrganizationMatch)
		if err != nil {
			return nil, err
		}
		if org != nil {
			orgID = &org.ID
		}
	}

	matches, err := r.deterministicMatches(ctx, rec, kind, orgID)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		// When multiple distinct entities match deterministically the record
		// proves they are the same real-world entity; collapse them first.
		winner := matches[0]
		for _, loser := range matches[1:] {
			if err := r.mergeEntities(ctx, winner, loser); err != nil {
				return nil, err
			}
		}
		if err := r.absorb(ctx, winner, rec, 1.0); err != nil {
			return nil, err
		}
		return &Resolution{EntityID: winner.ID, UID: winner.UID, Status: StatusMerged, Confidence: 1.0, Phase: 1}, nil
	}

	best, score, err := r.bestCandidate(ctx, rec, kind)
	if err != nil {
		return nil, err
	}
	phase := 2
	if best != nil && score >= r.opts.ReviewFloor && score < r.opts.MergeThreshold {
		phase = 3
		boost, err := r.graphBoost(ctx, best.ID, orgID)
		if err != nil {
			return nil, err
		}
		score += boost
	}

	switch {
	case best != nil && score >= r.opts.MergeThreshold:
		score = math.Min(score, 1.0)
		if err := r.absorb(ctx, best, rec, score); err != nil {
			return nil, err
		}
		return &Resolution{EntityID: best.ID, UID: best.UID, Status: StatusMerged, Confidence: score, Phase: phase}, nil
	case best != nil && score >= r.opts.ReviewFloor:
		entity, err := r.createEntity(ctx, rec, kind, score, true)
		if err != nil {
			return nil, err
		}
		return &Resolution{EntityID: entity.ID, UID: entity.UID, Created: true, Status: StatusNeedsReview, Confidence: score, Phase: phase}, nil
	default:
		entity, err := r.createEntity(ctx, rec, kind, 1.0, false)
		if err != nil {
			return nil, err
		}
		return &Resolution{EntityID: entity.ID, UID: entity.UID, Created: true, Status: StatusCreated, Confidence: 1.0, Phase: phase}, nil
	}
}

// Merge merges the loser entity into the winner, applying field survivorship.
// Used by manual adjudication of needs_review pairs.
func (r *Resolver) Merge(ctx context.Context, winnerID, loserID int32) error {
	winner, err := r.store.GetEntity(ctx, winnerID)
	if err != nil {
		return errors.Wrap(err, "failed to load winner")
	}
	loser, err := r.store.GetEntity(ctx, loserID)
	if err != nil {
		return errors.Wrap(err, "failed to load loser")
	}
	if winner == nil || loser == nil {
		return errors.New("both entities must exist to merge")
	}
	return r.mergeEntities(ctx, winner, loser)
}

func (r *Resolver) mergeEntities(ctx context.Context, winner, loser *store.Entity) error {
	update, err := r.survivorshipFromEntity(ctx, winner, loser)
	if err != nil {
		return err
	}
	return errors.Wrapf(r.store.Merge(ctx, &store.MergeEntities{
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Update:   update,
	}), "failed to merge entity %d into %d", loser.ID, winner.ID)
}

// deterministicMatches returns the distinct non-archived entities matching
// the record on an exact identifier, in rule order.
func (r *Resolver) deterministicMatches(ctx context.Context, rec *normalize.Record, kind store.EntityKind, orgID *int32) ([]*store.Entity, error) {
	normal := store.Normal
	var matches []*store.Entity
	seen := map[int32]bool{}
	collect := func(find *store.FindEntity) error {
		find.Kind = &kind
		find.RowStatus = &normal
		list, err := r.store.ListEntities(ctx, find)
		if err != nil {
			return errors.Wrap(err, "failed to query deterministic candidates")
		}
		for _, entity := range list {
			if !seen[entity.ID] {
				seen[entity.ID] = true
				matches = append(matches, entity)
			}
		}
		return nil
	}

	if kind == store.PersonKind {
		if rec.Email != "" {
			if err := collect(&store.FindEntity{Email: &rec.Email}); err != nil {
				return nil, err
			}
		}
		if rec.LinkedInURL != "" {
			if err := collect(&store.FindEntity{LinkedInURL: &rec.LinkedInURL}); err != nil {
				return nil, err
			}
		}
		if rec.Phone != "" {
			if err := collect(&store.FindEntity{Phone: &rec.Phone}); err != nil {
				return nil, err
			}
		}
		if rec.MatchName != "" && orgID != nil && rec.Location != "" {
			if err := collect(&store.FindEntity{MatchName: &rec.MatchName, OrganizationID: orgID, Location: &rec.Location}); err != nil {
				return nil, err
			}
		}
		return matches, nil
	}

	if rec.MatchName != "" {
		if err := collect(&store.FindEntity{MatchName: &rec.MatchName}); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

// bestCandidate scans non-archived entities of the record's kind and returns
// the highest-scoring probabilistic candidate.
func (r *Resolver) bestCandidate(ctx context.Context, rec *normalize.Record, kind store.EntityKind) (*store.Entity, float64, error) {
	normal := store.Normal
	candidates, err := r.store.ListEntities(ctx, &store.FindEntity{Kind: &kind, RowStatus: &normal})
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list candidates")
	}

	var best *store.Entity
	bestScore := 0.0
	orgNames := map[int32]string{}
	for _, cand := range candidates {
		score, err := r.scorePair(ctx, rec, cand, orgNames)
		if err != nil {
			return nil, 0, err
		}
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best, bestScore, nil
}

func (r *Resolver) scorePair(ctx context.Context, rec *normalize.Record, cand *store.Entity, orgNames map[int32]string) (float64, error) {
	switch {
	case cand.Kind == store.PersonKind && cand.Person != nil:
		p := cand.Person
		score := 0.4 * nameSimilarity(rec.MatchName, p.MatchName)
		if rec.OrganizationMatch != "" && p.OrganizationID != nil {
			candOrg, err := r.organizationMatchName(ctx, *p.OrganizationID, orgNames)
			if err != nil {
				return 0, err
			}
			if candOrg != "" && candOrg == rec.OrganizationMatch {
				score += 0.3
			}
		}
		score += 0.2 * tokenOverlap(rec.Title, p.Title)
		if rec.Location != "" && strings.EqualFold(rec.Location, p.Location) {
			score += 0.1
		}
		return score, nil
	case cand.Kind == store.OrganizationKind && cand.Organization != nil:
		o := cand.Organization
		score := 0.4 * nameSimilarity(rec.MatchName, o.MatchName)
		if rec.Abbreviation != "" && strings.EqualFold(rec.Abbreviation, o.Abbreviation) {
			score += 0.3
		}
		if rec.Location != "" && strings.EqualFold(rec.Location, o.Location) {
			score += 0.1
		}
		return score, nil
	}
	return 0, nil
}

func (r *Resolver) organizationMatchName(ctx context.Context, orgID int32, cache map[int32]string) (string, error) {
	if name, ok := cache[orgID]; ok {
		return name, nil
	}
	org, err := r.store.GetEntity(ctx, orgID)
	if err != nil {
		return "", errors.Wrap(err, "failed to load organization")
	}
	name := ""
	if org != nil && org.Organization != nil {
		name = org.Organization.MatchName
	}
	cache[orgID] = name
	return name, nil
}

// graphBoost counts graph neighbors shared between the candidate and a
// provisional entity built from the record. A fresh record carries no edges
// yet, so its neighborhood is the employer reference alone.
func (r *Resolver) graphBoost(ctx context.Context, candidateID int32, orgID *int32) (float64, error) {
	if orgID == nil {
		return 0, nil
	}
	neighbors, err := r.store.Neighbors(ctx, candidateID, nil, store.DirectionBoth)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load candidate neighbors")
	}
	perNeighbor := math.Min(0.08, r.opts.GraphBoostCap/5)
	boost := 0.0
	for _, n := range neighbors {
		if n.Entity.ID == *orgID {
			boost += perNeighbor
		}
	}
	return math.Min(boost, r.opts.GraphBoostCap), nil
}

// absorb merges a record into an existing entity: attach the source ref,
// apply field survivorship, refresh confidence, and keep the employment
// reference current.
func (r *Resolver) absorb(ctx context.Context, entity *store.Entity, rec *normalize.Record, confidence float64) error {
	ref := store.SourceRef{Source: rec.Source, LocalID: rec.LocalID}
	if err := r.store.AddEntitySource(ctx, entity.ID, ref); err != nil {
		return errors.Wrap(err, "failed to attach source ref")
	}
	update, err := r.survivorshipFromRecord(ctx, entity, rec)
	if err != nil {
		return err
	}
	update.Confidence = &confidence
	if _, err := r.store.UpdateEntity(ctx, update); err != nil {
		return errors.Wrap(err, "failed to apply survivorship update")
	}
	if entity.Kind == store.PersonKind && rec.OrganizationMatch != "" {
		return r.attachEmployment(ctx, entity.ID, rec)
	}
	return nil
}

func (r *Resolver) createEntity(ctx context.Context, rec *normalize.Record, kind store.EntityKind, confidence float64, needsReview bool) (*store.Entity, error) {
	entity := &store.Entity{
		UID:         shortuuid.New(),
		Kind:        kind,
		Confidence:  confidence,
		NeedsReview: needsReview,
		Sources:     []store.SourceRef{{Source: rec.Source, LocalID: rec.LocalID}},
	}
	if kind == store.PersonKind {
		entity.Person = &store.PersonPayload{
			DisplayName:   rec.DisplayName,
			MatchName:     rec.MatchName,
			Email:         rec.Email,
			RawEmail:      rec.RawEmail,
			InvalidEmail:  rec.InvalidEmail,
			Phone:         rec.Phone,
			RawPhone:      rec.RawPhone,
			UnparsedPhone: rec.UnparsedPhone,
			LinkedInURL:   rec.LinkedInURL,
			Title:         rec.Title,
			Location:      rec.Location,
			RoleType:      roleFromString(rec.Role),
			Influence:     influenceFromString(rec.Influence),
			Clearance:     rec.Clearance,
		}
	} else {
		entity.Organization = &store.OrganizationPayload{
			Name:         rec.DisplayName,
			MatchName:    rec.MatchName,
			Abbreviation: rec.Abbreviation,
			OrgType:      orgTypeForSource(rec.Source),
			Location:     rec.Location,
		}
	}
	created, err := r.store.CreateEntity(ctx, entity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create entity")
	}
	if kind == store.PersonKind && rec.OrganizationMatch != "" {
		if err := r.attachEmployment(ctx, created.ID, rec); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (r *Resolver) findOrganization(ctx context.Context, matchName string) (*store.Entity, error) {
	kind := store.OrganizationKind
	normal := store.Normal
	list, err := r.store.ListEntities(ctx, &store.FindEntity{Kind: &kind, RowStatus: &normal, MatchName: &matchName})
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up organization")
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ensureOrganization returns the organization named on the record, creating
// it when the store has never seen it.
func (r *Resolver) ensureOrganization(ctx context.Context, rec *normalize.Record) (*store.Entity, error) {
	org, err := r.findOrganization(ctx, rec.OrganizationMatch)
	if err != nil || org != nil {
		return org, err
	}
	created, err := r.store.CreateEntity(ctx, &store.Entity{
		UID:        shortuuid.New(),
		Kind:       store.OrganizationKind,
		Confidence: 1.0,
		Sources:    []store.SourceRef{{Source: rec.Source, LocalID: "org:" + rec.OrganizationMatch}},
		Organization: &store.OrganizationPayload{
			Name:      rec.Organization,
			MatchName: rec.OrganizationMatch,
			OrgType:   orgTypeForSource(rec.Source),
		},
	})
	return created, errors.Wrap(err, "failed to create organization")
}

// attachEmployment points the person at their current employer and records
// the WorksAt edge. Prior employers keep their edges.
func (r *Resolver) attachEmployment(ctx context.Context, personID int32, rec *normalize.Record) error {
	org, err := r.ensureOrganization(ctx, rec)
	if err != nil || org == nil {
		return err
	}
	if _, err := r.store.UpdateEntity(ctx, &store.UpdateEntity{ID: personID, OrganizationID: &org.ID}); err != nil {
		return errors.Wrap(err, "failed to update employer ref")
	}
	_, err = r.store.UpsertEdge(ctx, &store.Edge{
		FromID:     personID,
		ToID:       org.ID,
		Type:       store.EdgeWorksAt,
		Strength:   store.StrengthMedium,
		Source:     rec.Source,
		Confidence: 0.9,
	})
	return errors.Wrap(err, "failed to upsert employment edge")
}

func orgTypeForSource(source string) store.OrgType {
	switch source {
	case "sam.gov", "fpds", "usaspending":
		return store.OrgFederalAgency
	default:
		return store.OrgUnknown
	}
}

func roleFromString(s string) store.RoleType {
	switch canonicalEnum(s) {
	case "DECISION_MAKER":
		return store.RoleDecisionMaker
	case "TECHNICAL_LEAD":
		return store.RoleTechnicalLead
	case "EXECUTIVE":
		return store.RoleExecutive
	case "INFLUENCER":
		return store.RoleInfluencer
	default:
		return store.RoleUnknown
	}
}

func influenceFromString(s string) store.InfluenceLevel {
	switch canonicalEnum(s) {
	case "VERY_HIGH":
		return store.InfluenceVeryHigh
	case "HIGH":
		return store.InfluenceHigh
	case "MEDIUM":
		return store.InfluenceMedium
	default:
		return store.InfluenceLow
	}
}

func canonicalEnum(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
