package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
	"github.com/ItsSkellyHer3/ChatIfy/errors"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessage(id string) (domain.Message, error)
	ListMessages(channelID string, limit int) ([]domain.Message, error)
	AddReaction(id, emoji, uid string) (domain.Message, bool, error)
	DeleteMessage(id, requesterUID string) error
}

type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) MessageRepository {
	return MessageRepository{db: db}
}

type diskMessage struct {
	ID        string               `json:"id"`
	ChannelID string               `json:"channel_id"`
	UID       string               `json:"uid"`
	Name      string               `json:"name"`
	Avatar    string               `json:"avatar"`
	Text      string               `json:"text"`
	At        int64                `json:"at"`
	Nonce     string               `json:"nonce,omitempty"`
	Reactions map[string][]string  `json:"reactions,omitempty"`
	ReplyTo   *domain.ReplySnippet `json:"reply_to,omitempty"`
}

// messageKey is formatted as "msg:{channel_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
func messageKey(channelID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", channelID, at.UnixNano(), id))
}

// locatorKey maps a message id to its primary key, enabling by-id lookups
// (reactions, author-checked deletes) without knowing channel or time.
func locatorKey(id string) []byte {
	return []byte("mid:" + id)
}

func (m MessageRepository) StoreMessage(message domain.Message) error {
	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	key := messageKey(message.ChannelID, message.At, message.ID.String())
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(locatorKey(message.ID.String()), key)
	})
}

func (m MessageRepository) GetMessage(id string) (domain.Message, error) {
	var dm diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		return m.readByID(txn, id, &dm)
	})
	if err == badger.ErrKeyNotFound {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(dm)
}

// ListMessages retrieves messages for a channel using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally
// sorted by time. Collection stops once limit is reached.
func (m MessageRepository) ListMessages(channelID string, limit int) ([]domain.Message, error) {
	var diskMessages []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", channelID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(diskMessages) == limit {
				break
			}
			var dm diskMessage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dm)
			}); err != nil {
				return err
			}
			diskMessages = append(diskMessages, dm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	messages := make([]domain.Message, 0, len(diskMessages))
	for _, dm := range diskMessages {
		message, err := toMessage(dm)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// AddReaction appends uid under emoji with set semantics, inside a single
// transaction. The returned bool is false when the message was untouched
// (duplicate pair). An unknown id returns ErrMessageNotFound.
func (m MessageRepository) AddReaction(id, emoji, uid string) (domain.Message, bool, error) {
	var dm diskMessage
	changed := false
	err := m.db.Update(func(txn *badger.Txn) error {
		if err := m.readByID(txn, id, &dm); err != nil {
			return err
		}
		message, err := toMessage(dm)
		if err != nil {
			return err
		}
		if !message.AddReaction(emoji, uid) {
			return nil
		}
		changed = true
		dm = fromMessage(message)
		data, err := json.Marshal(dm)
		if err != nil {
			return err
		}
		return txn.Set(messageKey(dm.ChannelID, message.At, dm.ID), data)
	})
	if err == badger.ErrKeyNotFound {
		return domain.Message{}, false, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, false, err
	}
	message, err := toMessage(dm)
	return message, changed, err
}

// DeleteMessage removes a message after an author-match check.
// Only the original author may delete; anyone else gets ErrNotAuthor.
func (m MessageRepository) DeleteMessage(id, requesterUID string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		var dm diskMessage
		if err := m.readByID(txn, id, &dm); err != nil {
			return err
		}
		if dm.UID != requesterUID {
			return errors.ErrNotAuthor
		}
		if err := txn.Delete(messageKey(dm.ChannelID, time.Unix(0, dm.At), dm.ID)); err != nil {
			return err
		}
		return txn.Delete(locatorKey(id))
	})
	if err == badger.ErrKeyNotFound {
		return errors.ErrMessageNotFound
	}
	return err
}

func (m MessageRepository) readByID(txn *badger.Txn, id string, dm *diskMessage) error {
	item, err := txn.Get(locatorKey(id))
	if err != nil {
		return err
	}
	var primary []byte
	if err = item.Value(func(val []byte) error {
		primary = append(primary, val...)
		return nil
	}); err != nil {
		return err
	}
	item, err = txn.Get(primary)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dm)
	})
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:        message.ID.String(),
		ChannelID: message.ChannelID,
		UID:       message.AuthorID,
		Name:      message.Name,
		Avatar:    message.Avatar,
		Text:      message.Text,
		At:        message.At.UnixNano(),
		Nonce:     message.Nonce,
		Reactions: message.Reactions,
		ReplyTo:   message.ReplyTo,
	}
}

func toMessage(dm diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		ChannelID: dm.ChannelID,
		AuthorID:  dm.UID,
		Name:      dm.Name,
		Avatar:    dm.Avatar,
		Text:      dm.Text,
		At:        time.Unix(0, dm.At).UTC(),
		Nonce:     dm.Nonce,
		Reactions: dm.Reactions,
		ReplyTo:   dm.ReplyTo,
	}, nil
}
