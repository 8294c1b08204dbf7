package places

import "context"

// EventAction names a usage event sent to the Stats service.
type EventAction string

const (
	ActionPlaceCreated  EventAction = "PLACE_CREATED"
	ActionPlaceOpened   EventAction = "PLACE_OPENED"
	ActionPlaceEdited   EventAction = "PLACE_EDITED"
	ActionPlaceDeleted  EventAction = "PLACE_DELETED"
	ActionPlaceAccepted EventAction = "PLACE_ACCEPTED"
)

type Event struct {
	Action  EventAction
	PlaceID int64
	UserID  int64
}

// EventReporter forwards usage events. Failures never affect the
// operation that produced the event.
type EventReporter interface {
	Report(ctx context.Context, e Event) error
}

// MediaValidator checks image pointers against the Media service.
type MediaValidator interface {
	ImageExists(ctx context.Context, picID int64, token string) (bool, error)
}
