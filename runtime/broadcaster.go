package runtime

import (
	"log/slog"

	"github.com/ItsSkellyHer3/ChatIfy/contract"
	"github.com/ItsSkellyHer3/ChatIfy/domain"
)

// Broadcaster routes typed events to connections through the Registry's
// membership view. Delivery is fire-and-forget and at-most-once per
// currently-connected recipient: a failing or slow recipient is logged
// and skipped, never retried, and never blocks the others.
type Broadcaster struct {
	registry *Registry
	log      *slog.Logger
}

func NewBroadcaster(registry *Registry, log *slog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, log: log}
}

func (b *Broadcaster) ToRoom(room string, e domain.Event) {
	b.deliver(b.registry.SinksForRoom(room), e)
}

func (b *Broadcaster) ToRoomExcept(room, exceptConnID string, e domain.Event) {
	b.deliver(b.registry.SinksForRoomExcept(room, exceptConnID), e)
}

func (b *Broadcaster) ToConn(connID string, e domain.Event) {
	sink, ok := b.registry.Sink(connID)
	if !ok {
		return
	}
	b.deliver([]contract.EventSink{sink}, e)
}

func (b *Broadcaster) ToAll(e domain.Event) {
	b.deliver(b.registry.AllSinks(), e)
}

func (b *Broadcaster) deliver(sinks []contract.EventSink, e domain.Event) {
	for _, sink := range sinks {
		if err := sink.Deliver(e); err != nil {
			b.log.Debug("Event delivery failed", "event", e.Name, "error", err)
		}
	}
}
