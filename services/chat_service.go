package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ItsSkellyHer3/ChatIfy/contract"
	"github.com/ItsSkellyHer3/ChatIfy/domain"
	"github.com/ItsSkellyHer3/ChatIfy/repositories"
	"github.com/ItsSkellyHer3/ChatIfy/runtime"
)

// fallbackName is used by the typing relay when the sender's display
// name is not cached.
const fallbackName = "Someone"

type IChatService interface {
	Connect(sink contract.EventSink) string
	Identify(connID, userID string)
	Join(connID, channelID string)
	Typing(connID string, cmd domain.TypingCommand)
	AddReaction(cmd domain.ReactionCommand)
	SendMessage(cmd domain.SendMessageCommand)
	Disconnect(connID string)

	CreateGuest(name, avatar string) (domain.User, error)
	UpdateProfile(userID, name, avatar string) (domain.User, error)
	ListActiveUsers() ([]domain.User, error)
	ListChannels() ([]domain.Channel, error)
	History(channelID string) ([]domain.Message, error)
	DeleteMessage(messageID, requesterUID string) error
}

// ChatService runs the event pipelines. Inbound real-time events and REST
// calls all go through here; no other component touches the registry or
// the broadcaster directly.
type ChatService struct {
	log            *slog.Logger
	registry       *runtime.Registry
	broadcast      *runtime.Broadcaster
	users          repositories.IUserRepository
	channels       repositories.IChannelRepository
	messages       repositories.IMessageRepository
	presenceWindow time.Duration
	presenceLimit  int
	historyLimit   int
}

func NewChatService(log *slog.Logger, registry *runtime.Registry, broadcast *runtime.Broadcaster,
	users repositories.IUserRepository, channels repositories.IChannelRepository,
	messages repositories.IMessageRepository,
	presenceWindow time.Duration, presenceLimit, historyLimit int) *ChatService {
	return &ChatService{
		log:            log,
		registry:       registry,
		broadcast:      broadcast,
		users:          users,
		channels:       channels,
		messages:       messages,
		presenceWindow: presenceWindow,
		presenceLimit:  presenceLimit,
		historyLimit:   historyLimit,
	}
}

// Connect registers a new connection session and returns its id.
func (s *ChatService) Connect(sink contract.EventSink) string {
	connID := s.registry.Connect(sink)
	s.log.Debug("Connection opened", "conn_id", connID)
	return connID
}

// Identify binds a user identity to a connection, refreshes liveness and
// signals every connection to re-fetch the roster. The signal carries no
// diff, so racing identifies re-order harmlessly.
func (s *ChatService) Identify(connID, userID string) {
	if !s.registry.Identify(connID, userID) {
		s.log.Debug("Identify refused", "conn_id", connID, "uid", userID)
		return
	}
	user, err := s.users.GetUser(userID)
	if err == nil {
		_ = s.users.Touch(userID, time.Now().UTC())
		s.registry.CacheName(userID, user.Name)
		s.log.Info(fmt.Sprintf("User joined: %s", user.Name))
	}
	s.broadcast.ToAll(s.rosterRefresh())
}

// Join moves the connection into channelID (leaving any previous room)
// and confirms to the joining connection only.
func (s *ChatService) Join(connID, channelID string) {
	if userID, ok := s.registry.Resolve(connID); ok {
		_ = s.users.Touch(userID, time.Now().UTC())
	}
	previous, ok := s.registry.SwapRoom(connID, channelID)
	if !ok {
		return
	}
	if previous != "" && previous != channelID {
		s.log.Debug("Left channel", "conn_id", connID, "channel", previous)
	}
	s.log.Debug("Joined channel", "conn_id", connID, "channel", channelID)
	s.broadcast.ToConn(connID, domain.Event{
		Name:    domain.EventJoined,
		Payload: domain.JoinedPayload{ChannelID: channelID},
	})
}

// Typing relays a typing indicator to the room, excluding the sender's
// own connection. Nothing is persisted or debounced here.
func (s *ChatService) Typing(connID string, cmd domain.TypingCommand) {
	name, ok := s.registry.Name(cmd.UID)
	if !ok {
		name = fallbackName
	}
	s.broadcast.ToRoomExcept(cmd.CID, connID, domain.Event{
		Name: domain.EventTypingUpdate,
		Payload: domain.TypingUpdatePayload{
			CID:      cmd.CID,
			UID:      cmd.UID,
			Name:     name,
			IsTyping: cmd.IsTyping,
		},
	})
}

// AddReaction appends (emoji, uid) to a message's reaction set and
// broadcasts the full updated map to the message's room. Unknown message
// ids and duplicate pairs are benign no-ops.
func (s *ChatService) AddReaction(cmd domain.ReactionCommand) {
	message, changed, err := s.messages.AddReaction(cmd.MID, cmd.Emoji, cmd.UID)
	if err != nil {
		s.log.Debug("Reaction dropped", "mid", cmd.MID, "error", err)
		return
	}
	if !changed {
		return
	}
	s.broadcast.ToRoom(message.ChannelID, domain.Event{
		Name: domain.EventReactionUpdate,
		Payload: domain.ReactionUpdatePayload{
			MID:       cmd.MID,
			Reactions: message.Reactions,
		},
	})
}

// SendMessage runs the send pipeline. Malformed sends and sends from
// unknown (possibly reaped) identities are dropped without any reply to
// the sender; the only success signal is the echoed message event.
func (s *ChatService) SendMessage(cmd domain.SendMessageCommand) {
	if cmd.CID == "" || cmd.Text == "" || cmd.UID == "" {
		s.log.Debug("Invalid message dropped", "cid", cmd.CID, "uid", cmd.UID)
		return
	}
	user, err := s.users.GetUser(cmd.UID)
	if err != nil {
		s.log.Info("Message dropped: unknown user", "uid", cmd.UID)
		return
	}

	now := time.Now().UTC()
	_ = s.users.Touch(user.ID, now)

	message := domain.Message{
		ID:        uuid.New(),
		ChannelID: cmd.CID,
		AuthorID:  user.ID,
		Name:      user.Name,
		Avatar:    user.Avatar,
		Text:      cmd.Text,
		At:        now,
		Nonce:     cmd.Nonce,
		ReplyTo:   cmd.ReplyTo,
	}
	if err := s.messages.StoreMessage(message); err != nil {
		s.log.Error("Message persistence failed", "uid", user.ID, "error", err)
		return
	}

	s.log.Debug("Broadcasting message", "author", user.Name, "channel", cmd.CID)
	s.broadcast.ToRoom(cmd.CID, domain.Event{
		Name:    domain.EventMessage,
		Payload: message.Payload(),
	})
}

// Disconnect destroys the session. The user record stays: deletion is the
// reaper's job, which preserves a grace period for reconnects.
func (s *ChatService) Disconnect(connID string) {
	userID, hadUser := s.registry.Disconnect(connID)
	if !hadUser {
		return
	}
	s.log.Debug("User left", "uid", userID)
	s.broadcast.ToAll(s.rosterRefresh())
}

func (s *ChatService) CreateGuest(name, avatar string) (domain.User, error) {
	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Avatar:    avatar,
		CreatedAt: now,
		LastSeen:  now,
	}
	if err := s.users.CreateUser(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdateProfile changes a user's display name and/or avatar. Empty fields
// are left untouched. Snapshots on already-sent messages never change.
func (s *ChatService) UpdateProfile(userID, name, avatar string) (domain.User, error) {
	user, err := s.users.GetUser(userID)
	if err != nil {
		return domain.User{}, err
	}
	if name != "" {
		user.Name = name
		s.registry.CacheName(userID, name)
	}
	if avatar != "" {
		user.Avatar = avatar
	}
	if err := s.users.UpdateUser(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *ChatService) ListActiveUsers() ([]domain.User, error) {
	return s.users.ListActive(s.presenceWindow, s.presenceLimit)
}

func (s *ChatService) ListChannels() ([]domain.Channel, error) {
	return s.channels.ListChannels()
}

func (s *ChatService) History(channelID string) ([]domain.Message, error) {
	return s.messages.ListMessages(channelID, s.historyLimit)
}

// DeleteMessage removes a message on behalf of requesterUID. The
// author-match check happens in the store; ErrNotAuthor surfaces to the
// REST layer as an explicit rejection.
func (s *ChatService) DeleteMessage(messageID, requesterUID string) error {
	return s.messages.DeleteMessage(messageID, requesterUID)
}

func (s *ChatService) rosterRefresh() domain.Event {
	return domain.Event{
		Name:    domain.EventUserListUpdate,
		Payload: domain.UserListUpdatePayload{Refresh: true},
	}
}
