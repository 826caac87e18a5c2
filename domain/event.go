package domain

import "time"

// timeLayout is the ISO-8601 UTC serialization used at the boundary.
const timeLayout = time.RFC3339Nano

// Outbound event names of the real-time surface.
const (
	EventMessage        = "message"
	EventJoined         = "joined"
	EventTypingUpdate   = "typing_update"
	EventReactionUpdate = "reaction_update"
	EventUserListUpdate = "user_list_update"
)

// Event is a named payload handed to the broadcast engine. Payloads carry
// their wire shape through json tags; delivery is fire-and-forget.
type Event struct {
	Name    string
	Payload any
}

// MessagePayload is the wire shape of a broadcast message. Ts is an
// ISO-8601 UTC string; Nonce is echoed back unmodified so the sender can
// reconcile its optimistic UI state.
type MessagePayload struct {
	ID        string              `json:"id"`
	Nonce     string              `json:"nonce,omitempty"`
	ChannelID string              `json:"channelId"`
	UID       string              `json:"uid"`
	Name      string              `json:"name"`
	Avatar    string              `json:"avatar"`
	Text      string              `json:"text"`
	Ts        string              `json:"ts"`
	Reactions map[string][]string `json:"reactions"`
	ReplyTo   *ReplySnippet       `json:"reply_to"`
}

type JoinedPayload struct {
	ChannelID string `json:"channelId"`
}

type TypingUpdatePayload struct {
	CID      string `json:"cid"`
	UID      string `json:"uid"`
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

type ReactionUpdatePayload struct {
	MID       string              `json:"mid"`
	Reactions map[string][]string `json:"reactions"`
}

// Payload converts a Message into its wire shape. A nil reaction map
// becomes an empty object so clients always see "reactions": {}.
func (m Message) Payload() MessagePayload {
	reactions := m.Reactions
	if reactions == nil {
		reactions = map[string][]string{}
	}
	return MessagePayload{
		ID:        m.ID.String(),
		Nonce:     m.Nonce,
		ChannelID: m.ChannelID,
		UID:       m.AuthorID,
		Name:      m.Name,
		Avatar:    m.Avatar,
		Text:      m.Text,
		Ts:        m.At.UTC().Format(timeLayout),
		Reactions: reactions,
		ReplyTo:   m.ReplyTo,
	}
}

// UserListUpdatePayload is a coarse "something changed, re-fetch" signal.
// It carries no roster diff so re-ordering between concurrent identifies
// and disconnects is harmless.
type UserListUpdatePayload struct {
	Refresh bool `json:"refresh"`
}
