package dispatcher

import (
	"context"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/event"
)

// Handler reacts to an order event. Handlers must not mutate the event.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
