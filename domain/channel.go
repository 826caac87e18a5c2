package domain

// Channel is a named broadcast scope. Channels are seeded at startup and
// immutable afterwards.
type Channel struct {
	ID   string
	Name string
}
