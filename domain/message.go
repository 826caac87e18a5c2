// Package domain contains core concepts of the chat system.
// This file defines Message records and reaction rules.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ReplySnippet is a client-supplied copy of a prior message, attached to a
// reply for display. The server echoes it without checking the referenced
// message still exists.
type ReplySnippet struct {
	ID   string `json:"id"`
	UID  string `json:"uid,omitempty"`
	Name string `json:"name,omitempty"`
	Text string `json:"text,omitempty"`
}

// Message represents a persisted chat message. Name and Avatar are
// snapshots of the author's profile frozen at send time; later profile
// edits never rewrite them.
type Message struct {
	ID        uuid.UUID
	ChannelID string
	AuthorID  string
	Name      string
	Avatar    string
	Text      string
	At        time.Time
	Nonce     string
	Reactions map[string][]string
	ReplyTo   *ReplySnippet
}

// AddReaction records uid under emoji with set semantics.
// Returns false when the pair was already present (no-op).
func (m *Message) AddReaction(emoji, uid string) bool {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	if lo.Contains(m.Reactions[emoji], uid) {
		return false
	}
	m.Reactions[emoji] = append(m.Reactions[emoji], uid)
	return true
}
