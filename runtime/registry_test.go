package runtime

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
)

type captureSink struct {
	mu     sync.Mutex
	name   string
	fail   bool
	events []domain.Event
}

func (c *captureSink) Deliver(e domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return fmt.Errorf("sink %s unavailable", c.name)
	}
	c.events = append(c.events, e)
	return nil
}

func (c *captureSink) Events() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Event(nil), c.events...)
}

func TestRegistry_Identify_BindsAtMostOnce(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	connID := registry.Connect(&captureSink{name: "a"})

	_, bound := registry.Resolve(connID)
	req.False(bound)

	req.True(registry.Identify(connID, "u1"))
	req.False(registry.Identify(connID, "u2"))

	uid, bound := registry.Resolve(connID)
	req.True(bound)
	req.Equal("u1", uid)

	req.False(registry.Identify("unknown-conn", "u1"))
}

func TestRegistry_SwapRoom_SingleMembership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	connID := registry.Connect(&captureSink{name: "a"})

	previous, ok := registry.SwapRoom(connID, "general")
	req.True(ok)
	req.Empty(previous)

	// Joining another room leaves exactly the previous one.
	previous, ok = registry.SwapRoom(connID, "dev")
	req.True(ok)
	req.Equal("general", previous)

	req.Empty(registry.SinksForRoom("general"))
	req.Len(registry.SinksForRoom("dev"), 1)

	// Re-joining the current room is harmless.
	previous, ok = registry.SwapRoom(connID, "dev")
	req.True(ok)
	req.Equal("dev", previous)
	req.Len(registry.SinksForRoom("dev"), 1)
}

func TestRegistry_Disconnect_ReportsBoundUser(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	anon := registry.Connect(&captureSink{name: "anon"})
	_, hadUser := registry.Disconnect(anon)
	req.False(hadUser)

	connID := registry.Connect(&captureSink{name: "a"})
	req.True(registry.Identify(connID, "u1"))
	registry.SwapRoom(connID, "general")

	uid, hadUser := registry.Disconnect(connID)
	req.True(hadUser)
	req.Equal("u1", uid)

	req.Empty(registry.SinksForRoom("general"))
	_, ok := registry.Sink(connID)
	req.False(ok)
}

func TestRegistry_NameCache(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	_, ok := registry.Name("u1")
	req.False(ok)

	registry.CacheName("u1", "Alice")
	name, ok := registry.Name("u1")
	req.True(ok)
	req.Equal("Alice", name)
}
