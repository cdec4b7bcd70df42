package kanban

import "context"

// Store is the durable home of application cards.
//
// Reads outside WithinOwner see committed state only. Every write goes
// through WithinOwner, which runs fn as one atomic unit of work and lets at
// most one unit run per owner at a time. If fn returns an error nothing it
// wrote is kept.
type Store interface {
	WithinOwner(ctx context.Context, ownerID string, fn func(tx Tx) error) error

	Get(ctx context.Context, ownerID, id string) (*Application, error)
	// List returns the owner's cards ordered by (status, orderIndex). A nil
	// status returns every column.
	List(ctx context.Context, ownerID string, status *Status) ([]Application, error)
	// Owners returns every owner with at least one card.
	Owners(ctx context.Context) ([]string, error)
}

// Tx is the view of the store inside WithinOwner. All calls are scoped to
// the owner the unit of work was opened for.
type Tx interface {
	// Get returns ErrNotFound when id is missing or owned by someone else.
	Get(ctx context.Context, id string) (*Application, error)
	// ListPartition returns the cards of one column ordered by orderIndex.
	ListPartition(ctx context.Context, status Status) ([]Application, error)
	Insert(ctx context.Context, app *Application) error
	// Update writes every mutable field of app and refreshes app.UpdatedAt.
	Update(ctx context.Context, app *Application) error
	// ApplyShifts rewrites the order index of each shifted card in the
	// given order.
	ApplyShifts(ctx context.Context, shifts []Shift) error
	// Delete returns ErrNotFound when there was nothing to delete.
	Delete(ctx context.Context, id string) error
}

// Publisher forwards board events to the Gateway. Failures are logged by the
// caller and never fail the request.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Event is a board change notification.
type Event struct {
	Type          string `json:"type"`
	ApplicationID string `json:"applicationId"`
	UserID        string `json:"userId"`
	From          Status `json:"from,omitempty"`
	To            Status `json:"to,omitempty"`
	OrderIndex    *int   `json:"orderIndex,omitempty"`
}

// Event types.
const (
	EventCardMoved          = "EVENT_CARD_MOVED"
	EventApplicationCreated = "EVENT_APPLICATION_CREATED"
	EventApplicationDeleted = "EVENT_APPLICATION_DELETED"
)

func members(apps []Application) []Member {
	out := make([]Member, 0, len(apps))
	for i := range apps {
		out = append(out, apps[i].Member())
	}
	return out
}
