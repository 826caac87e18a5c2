package domain

// Inbound real-time commands. Field tags match the client wire format.

type SendMessageCommand struct {
	CID     string        `json:"cid"`
	Text    string        `json:"text"`
	UID     string        `json:"uid"`
	Nonce   string        `json:"nonce"`
	ReplyTo *ReplySnippet `json:"reply_to"`
}

type TypingCommand struct {
	CID      string `json:"cid"`
	UID      string `json:"uid"`
	IsTyping bool   `json:"isTyping"`
}

type ReactionCommand struct {
	MID   string `json:"mid"`
	Emoji string `json:"emoji"`
	UID   string `json:"uid"`
}
