// Package domain contains core concepts of the chat system.
// This file defines User identities and their liveness timestamp.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// User is a guest identity. LastSeen drives the presence roster and the
// reaper: it only moves forward, the sole way back is deletion.
type User struct {
	ID        string
	Name      string
	Avatar    string
	CreatedAt time.Time
	LastSeen  time.Time
}
