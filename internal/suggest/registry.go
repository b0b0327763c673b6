package suggest

import (
	"sync"
)

// Subscriber is one open push-stream connection. Send must not block; a
// failed Send marks the connection dead and the caller prunes it.
type Subscriber interface {
	Send(data []byte) error
}

type sessionEntry struct {
	subscribers map[Subscriber]struct{}
	latest      *Payload
}

// Registry owns all per-session state: the subscriber set and the latest
// published payload. A session entry exists only while it has at least one
// subscriber or a stored payload. All operations tolerate unknown session
// ids, publish and subscribe may race for a brand-new session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*sessionEntry),
	}
}

func (r *Registry) AddSubscriber(sessionID string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		entry = &sessionEntry{subscribers: make(map[Subscriber]struct{})}
		r.sessions[sessionID] = entry
	}
	entry.subscribers[sub] = struct{}{}
}

// RemoveSubscriber is idempotent. The session entry is deleted once the
// subscriber set is empty and no payload is stored, so idle sessions do not
// accumulate across connect/disconnect cycles.
func (r *Registry) RemoveSubscriber(sessionID string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(entry.subscribers, sub)
	if len(entry.subscribers) == 0 && entry.latest == nil {
		delete(r.sessions, sessionID)
	}
}

// SetLatest overwrites the stored payload, it never merges.
func (r *Registry) SetLatest(sessionID string, p Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		entry = &sessionEntry{subscribers: make(map[Subscriber]struct{})}
		r.sessions[sessionID] = entry
	}
	entry.latest = &p
}

func (r *Registry) Latest(sessionID string) (Payload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sessionID]
	if !ok || entry.latest == nil {
		return Payload{}, false
	}
	return *entry.latest, true
}

// Subscribers returns a snapshot of the current subscriber set, safe to
// iterate while other goroutines mutate the registry.
func (r *Registry) Subscribers(sessionID string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	subs := make([]Subscriber, 0, len(entry.subscribers))
	for sub := range entry.subscribers {
		subs = append(subs, sub)
	}
	return subs
}

func (r *Registry) SubscriberCount(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(entry.subscribers)
}

func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
