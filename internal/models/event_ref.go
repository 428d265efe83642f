package models

import "fmt"

type EventRefKind string

const (
	EventRefLocal    EventRefKind = "local"
	EventRefExternal EventRefKind = "external"
)

// EventRef points at either a platform-managed event or an external
// listing maintained by the sync job. Exactly one side exists; the
// repository layer maps the variant onto the two nullable columns.
type EventRef struct {
	Kind EventRefKind `json:"kind"`
	ID   string       `json:"id"`
}

func LocalEventRef(id string) EventRef {
	return EventRef{Kind: EventRefLocal, ID: id}
}

func ExternalEventRef(id string) EventRef {
	return EventRef{Kind: EventRefExternal, ID: id}
}

func (r EventRef) IsLocal() bool {
	return r.Kind == EventRefLocal
}

func (r EventRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("event ref: empty id")
	}
	switch r.Kind {
	case EventRefLocal, EventRefExternal:
		return nil
	default:
		return fmt.Errorf("event ref: unknown kind %q", r.Kind)
	}
}
