package store

import "context"

// InteractionType is the channel of a logged interaction.
type InteractionType string

const (
	InteractionMeeting InteractionType = "MEETING"
	InteractionEmail   InteractionType = "EMAIL"
	InteractionCall    InteractionType = "CALL"
	InteractionEvent   InteractionType = "EVENT"
)

// InteractionOutcome grades how an interaction went.
type InteractionOutcome string

const (
	OutcomePositive InteractionOutcome = "POSITIVE"
	OutcomeNeutral  InteractionOutcome = "NEUTRAL"
	OutcomeNegative InteractionOutcome = "NEGATIVE"
)

// Interaction is an append-only log entry against a contact. Rows are
// immutable once created; corrections create a new Interaction whose
// AmendsID references the prior row.
type Interaction struct {
	ID           int32
	ContactID    int32
	OccurredTs   int64
	Type         InteractionType
	Outcome      InteractionOutcome
	Note         string
	NextAction   string
	NextActionTs *int64
	AmendsID     *int32
	CreatedTs    int64
}

// FindInteraction is the find condition for interactions.
type FindInteraction struct {
	ID         *int32
	ContactID  *int32
	ContactIDs []int32
	Type       *InteractionType
	// SinceTs keeps interactions that occurred at or after the timestamp.
	SinceTs *int64

	Limit  *int
	Offset *int
}

// CreateInteraction appends an interaction. There is no update or delete;
// history is immutable.
func (s *Store) CreateInteraction(ctx context.Context, create *Interaction) (*Interaction, error) {
	return s.driver.CreateInteraction(ctx, create)
}

// ListInteractions lists interactions with filter, most recent first.
func (s *Store) ListInteractions(ctx context.Context, find *FindInteraction) ([]*Interaction, error) {
	return s.driver.ListInteractions(ctx, find)
}
