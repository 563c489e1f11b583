// Package scorer computes the relationship bonus for an opportunity: how
// much the pursuing company's agency contacts move the needle. The bonus is
// an additive modifier for a win-probability estimate computed elsewhere.
package scorer

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/capturelab/capture/store"
)

// ErrGraphUnreachable wraps store failures during scoring. The scorer never
// invents a default score when the store is down; a silent zero would skew
// bid decisions.
var ErrGraphUnreachable = errors.New("graph store unreachable")

const (
	bonusFloor = -10
	bonusCeil  = 30
)

// Score is the relationship bonus and the ordered audit trail of the rules
// that produced it.
type Score struct {
	Bonus     int      `json:"bonus"`
	Rationale []string `json:"rationale"`
}

type Options struct {
	// ActiveWindowDays is how far back an interaction still counts as an
	// active relationship. Defaults to 90.
	ActiveWindowDays int
	// Now is a clock hook for tests.
	Now func() time.Time
}

type Scorer struct {
	store *store.Store
	opts  Options
}

func New(st *store.Store, opts Options) *Scorer {
	if opts.ActiveWindowDays <= 0 {
		opts.ActiveWindowDays = 90
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scorer{store: st, opts: opts}
}

// ScoreOpportunity walks the graph around the opportunity's agency and
// returns the contact-advantage bonus in [-10, 30]. The sum of applied rules
// is clamped at the end, not per rule.
func (s *Scorer) ScoreOpportunity(ctx context.Context, opportunityUID string, companyID int32) (*Score, error) {
	opportunity, err := s.store.GetOpportunity(ctx, opportunityUID)
	if err != nil {
		return nil, graphErr(err, "failed to load opportunity")
	}
	if opportunity == nil {
		return nil, errors.Errorf("opportunity %q not found", opportunityUID)
	}

	contacts, err := s.agencyContacts(ctx, opportunity.AgencyID)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return &Score{Bonus: bonusFloor, Rationale: []string{"no contacts at agency"}}, nil
	}

	cutoff := s.opts.Now().Add(-time.Duration(s.opts.ActiveWindowDays) * 24 * time.Hour).Unix()
	total := 0
	rationale := []string{}

	for _, contact := range contacts {
		strength, err := s.relationshipStrength(ctx, contact.ID, companyID, cutoff)
		if err != nil {
			return nil, err
		}
		points, rule := ruleFor(contact.Person.RoleType, contact.Person.Influence, strength)
		if points == 0 {
			continue
		}
		total += points
		rationale = append(rationale, fmt.Sprintf("%s: %s (%+d)", contact.Person.DisplayName, rule, points))
	}

	engaged, err := s.recentInteractionCount(ctx, contacts, cutoff)
	if err != nil {
		return nil, err
	}
	if engaged >= 3 {
		total += 5
		rationale = append(rationale, fmt.Sprintf("active engagement: %d interactions in the last %d days (+5)", engaged, s.opts.ActiveWindowDays))
	}

	if total > bonusCeil {
		total = bonusCeil
	}
	if total < bonusFloor {
		total = bonusFloor
	}
	return &Score{Bonus: total, Rationale: rationale}, nil
}

// ruleFor is the role/influence/strength table. Roles outside it contribute
// nothing.
func ruleFor(role store.RoleType, influence store.InfluenceLevel, strength store.EdgeStrength) (int, string) {
	switch role {
	case store.RoleDecisionMaker:
		switch {
		case influence == store.InfluenceVeryHigh && strength == store.StrengthStrong:
			return 25, "decision maker, very high influence, strong relationship"
		case influence == store.InfluenceVeryHigh && strength == store.StrengthMedium:
			return 15, "decision maker, very high influence, medium relationship"
		case influence == store.InfluenceHigh && strength == store.StrengthStrong:
			return 15, "decision maker, high influence, strong relationship"
		case influence == store.InfluenceHigh && strength == store.StrengthMedium:
			return 10, "decision maker, high influence, medium relationship"
		}
	case store.RoleTechnicalLead:
		switch strength {
		case store.StrengthStrong:
			return 10, "technical lead, strong relationship"
		case store.StrengthMedium:
			return 5, "technical lead, medium relationship"
		}
	}
	return 0, ""
}

// agencyContacts returns the persons with a WorksAt edge to the agency or to
// one of its subsidiaries, following parent references at most two levels
// down. Order follows edge insertion order so rationales are stable.
func (s *Scorer) agencyContacts(ctx context.Context, agencyID int32) ([]*store.Entity, error) {
	orgIDs := []int32{agencyID}
	seen := map[int32]bool{agencyID: true}
	frontier := []int32{agencyID}
	for depth := 0; depth < 2; depth++ {
		next := []int32{}
		for _, id := range frontier {
			kind := store.OrganizationKind
			normal := store.Normal
			parentID := id
			subs, err := s.store.ListEntities(ctx, &store.FindEntity{Kind: &kind, RowStatus: &normal, ParentID: &parentID})
			if err != nil {
				return nil, graphErr(err, "failed to list subsidiaries")
			}
			for _, sub := range subs {
				if !seen[sub.ID] {
					seen[sub.ID] = true
					orgIDs = append(orgIDs, sub.ID)
					next = append(next, sub.ID)
				}
			}
		}
		frontier = next
	}

	var contacts []*store.Entity
	contactSeen := map[int32]bool{}
	for _, orgID := range orgIDs {
		id := orgID
		edges, err := s.store.ListEdges(ctx, &store.FindEdge{ToID: &id, Types: []store.EdgeType{store.EdgeWorksAt}})
		if err != nil {
			return nil, graphErr(err, "failed to list employment edges")
		}
		for _, edge := range edges {
			if contactSeen[edge.FromID] {
				continue
			}
			contactSeen[edge.FromID] = true
			person, err := s.store.GetEntity(ctx, edge.FromID)
			if err != nil {
				return nil, graphErr(err, "failed to load contact")
			}
			if person == nil || person.Kind != store.PersonKind || person.Person == nil || person.RowStatus != store.Normal {
				continue
			}
			contacts = append(contacts, person)
		}
	}
	return contacts, nil
}

// relationshipStrength derives the contact's relationship to the pursuing
// company: an interaction inside the active window counts as a strong, live
// relationship; otherwise fall back to the strongest recorded edge between
// the contact and the company, then to weak.
func (s *Scorer) relationshipStrength(ctx context.Context, contactID, companyID int32, cutoff int64) (store.EdgeStrength, error) {
	one := 1
	recent, err := s.store.ListInteractions(ctx, &store.FindInteraction{ContactID: &contactID, SinceTs: &cutoff, Limit: &one})
	if err != nil {
		return "", graphErr(err, "failed to list interactions")
	}
	if len(recent) > 0 {
		return store.StrengthStrong, nil
	}

	edges, err := s.store.ListEdges(ctx, &store.FindEdge{EitherID: &contactID})
	if err != nil {
		return "", graphErr(err, "failed to list contact edges")
	}
	strength := store.StrengthWeak
	for _, edge := range edges {
		if edge.FromID != companyID && edge.ToID != companyID {
			continue
		}
		if strengthRank(edge.Strength) > strengthRank(strength) {
			strength = edge.Strength
		}
	}
	return strength, nil
}

func strengthRank(s store.EdgeStrength) int {
	switch s {
	case store.StrengthStrong:
		return 3
	case store.StrengthMedium:
		return 2
	case store.StrengthWeak:
		return 1
	}
	return 0
}

func (s *Scorer) recentInteractionCount(ctx context.Context, contacts []*store.Entity, cutoff int64) (int, error) {
	ids := make([]int32, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.ID)
	}
	list, err := s.store.ListInteractions(ctx, &store.FindInteraction{ContactIDs: ids, SinceTs: &cutoff})
	if err != nil {
		return 0, graphErr(err, "failed to count interactions")
	}
	return len(list), nil
}

func graphErr(err error, msg string) error {
	return errors.Wrapf(ErrGraphUnreachable, "%s: %v", msg, err)
}
