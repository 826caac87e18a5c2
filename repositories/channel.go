package repositories

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
)

type IChannelRepository interface {
	StoreChannel(id, name string) error
	ListChannels() ([]domain.Channel, error)
}

type diskChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) ChannelRepository {
	return ChannelRepository{db: db}
}

func (c ChannelRepository) StoreChannel(id, name string) error {
	data, err := json.Marshal(diskChannel{ID: id, Name: name})
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("channel:"+id), data)
	})
}

func (c ChannelRepository) ListChannels() ([]domain.Channel, error) {
	var channels []domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("channel:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var ch diskChannel
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &ch)
			}); err != nil {
				return err
			}
			channels = append(channels, domain.Channel{ID: ch.ID, Name: ch.Name})
		}
		return nil
	})
	return channels, err
}
