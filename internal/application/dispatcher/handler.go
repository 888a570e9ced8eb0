package dispatcher

import (
	"context"

	"github.com/garyjia/expense-desk/internal/domain/event"
)

// Handler reacts to one expense event. Errors from published events are logged, not returned to the publisher.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler. ListHandlers leaves Handler nil.
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
