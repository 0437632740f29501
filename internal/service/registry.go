package service

import (
	"log/slog"
	"sync"

	"github.com/bloodlink/bloodlink/internal/domain"
)

// ConnectionRegistry maps a logical identity to at most one live
// realtime channel. It is shared by every concurrent operation that
// pushes events, so all access goes through one mutex.
type ConnectionRegistry struct {
	mu         sync.RWMutex
	byIdentity map[domain.Identity]chan domain.Event
	owners     map[chan domain.Event]domain.Identity
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byIdentity: make(map[domain.Identity]chan domain.Event),
		owners:     make(map[chan domain.Event]domain.Identity),
	}
}

// Register tracks ch as the live channel for id. A later registration
// for the same identity supersedes the earlier one in the mapping; the
// superseded socket is not closed here, its own handler still owns it.
func (r *ConnectionRegistry) Register(id domain.Identity, ch chan domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byIdentity[id]; ok {
		delete(r.owners, old)
	}
	// A channel re-joining as a different identity must not leave the
	// previous identity pointing at it.
	if prev, ok := r.owners[ch]; ok && prev != id {
		if r.byIdentity[prev] == ch {
			delete(r.byIdentity, prev)
		}
	}
	r.byIdentity[id] = ch
	r.owners[ch] = id
}

// Unregister drops ch. When ch was already superseded by a newer
// registration for the same identity, the newer mapping survives.
func (r *ConnectionRegistry) Unregister(ch chan domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.owners[ch]
	if !ok {
		return
	}
	delete(r.owners, ch)
	if r.byIdentity[id] == ch {
		delete(r.byIdentity, id)
	}
}

// SendTo pushes event to each listed identity that currently has a
// live channel. Identities without one are silently skipped.
func (r *ConnectionRegistry) SendTo(ids []domain.Identity, event domain.Event) {
	event.Targets = nil

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range ids {
		if ch, ok := r.byIdentity[id]; ok {
			deliver(ch, id, event)
		}
	}
}

// Broadcast pushes event to every connected identity.
func (r *ConnectionRegistry) Broadcast(event domain.Event) {
	event.Targets = nil

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, ch := range r.byIdentity {
		deliver(ch, id, event)
	}
}

// Connected reports whether id currently has a live channel.
func (r *ConnectionRegistry) Connected(id domain.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byIdentity[id]
	return ok
}

// deliver is fire-and-forget: a channel whose consumer has stalled
// drops the event rather than blocking the registry.
func deliver(ch chan domain.Event, id domain.Identity, event domain.Event) {
	select {
	case ch <- event:
	default:
		slog.Warn("dropping event for slow consumer",
			slog.String("identity", id.String()),
			slog.String("event", event.Type),
			slog.String("module", "registry"),
		)
	}
}
