package shell

import (
	"context"

	"github.com/openshelf/circulation-go/core"
)

// CommitListener is notified after a domain event was durably appended to
// the journal. Listeners must not fail the commit: they run after the append
// succeeded and any error they encounter is their own to handle.
type CommitListener interface {
	OnCommit(ctx context.Context, event core.DomainEvent)
}

// ListenerGroup fans a commit notification out to multiple listeners in order.
type ListenerGroup struct {
	listeners []CommitListener
}

// NewListenerGroup creates a group over the given listeners, skipping nils.
func NewListenerGroup(listeners ...CommitListener) *ListenerGroup {
	group := &ListenerGroup{}

	for _, listener := range listeners {
		if listener != nil {
			group.listeners = append(group.listeners, listener)
		}
	}

	return group
}

// OnCommit implements CommitListener.
func (g *ListenerGroup) OnCommit(ctx context.Context, event core.DomainEvent) {
	for _, listener := range g.listeners {
		listener.OnCommit(ctx, event)
	}
}
