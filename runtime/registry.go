// Package runtime owns the live session state: connection identities,
// room membership, and event fan-out. It contains no domain rules beyond
// the session invariants.
package runtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ItsSkellyHer3/ChatIfy/contract"
)

// session is the ephemeral per-connection state. userID is set at most
// once; room is the explicit single-room field, so the at-most-one-room
// invariant holds by construction instead of by membership enumeration.
type session struct {
	sink   contract.EventSink
	userID string
	room   string
}

// Registry binds connections to identities and rooms, and caches display
// names for the typing relay. All maps live behind one mutex: a
// read-modify-write like a room swap must be atomic with respect to a
// concurrent disconnect of the same connection.
type Registry struct {
	mu       sync.Mutex
	log      *slog.Logger
	sessions map[string]*session
	names    map[string]string
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[string]*session),
		names:    make(map[string]string),
	}
}

// Connect registers a new connection and returns its id.
func (r *Registry) Connect(sink contract.EventSink) string {
	connID := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = &session{sink: sink}
	return connID
}

// Identify binds a user identity to a connection. The binding happens at
// most once per connection; a second identify is refused.
func (r *Registry) Identify(connID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok || s.userID != "" {
		return false
	}
	s.userID = userID
	return true
}

// Resolve returns the user bound to a connection, if any.
func (r *Registry) Resolve(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok || s.userID == "" {
		return "", false
	}
	return s.userID, true
}

// SwapRoom atomically moves a connection to room and returns the room it
// was in before (empty if none). Re-joining the current room is a no-op
// from the membership perspective.
func (r *Registry) SwapRoom(connID, room string) (previous string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.sessions[connID]
	if !exists {
		return "", false
	}
	previous = s.room
	s.room = room
	return previous, true
}

// Disconnect destroys the session and reports the bound user, if any.
func (r *Registry) Disconnect(connID string) (userID string, hadUser bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return "", false
	}
	delete(r.sessions, connID)
	return s.userID, s.userID != ""
}

// CacheName records a user's display name for the typing relay.
func (r *Registry) CacheName(userID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[userID] = name
}

func (r *Registry) Name(userID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[userID]
	return name, ok
}

// SinksForRoom snapshots the sinks of every connection currently in room.
// The caller delivers outside the lock.
func (r *Registry) SinksForRoom(room string) []contract.EventSink {
	return r.SinksForRoomExcept(room, "")
}

// SinksForRoomExcept is SinksForRoom minus one connection, used by the
// typing relay which excludes the sender.
func (r *Registry) SinksForRoomExcept(room, exceptConnID string) []contract.EventSink {
	if room == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var sinks []contract.EventSink
	for connID, s := range r.sessions {
		if s.room == room && connID != exceptConnID {
			sinks = append(sinks, s.sink)
		}
	}
	return sinks
}

// Sink returns the sink of a single connection.
func (r *Registry) Sink(connID string) (contract.EventSink, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return nil, false
	}
	return s.sink, true
}

// AllSinks snapshots every connected sink, identified or not.
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sinks []contract.EventSink
	for _, s := range r.sessions {
		sinks = append(sinks, s.sink)
	}
	return sinks
}
