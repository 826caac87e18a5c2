package repositories

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
	"github.com/ItsSkellyHer3/ChatIfy/errors"
)

type IUserRepository interface {
	CreateUser(user domain.User) error
	GetUser(id string) (domain.User, error)
	UpdateUser(user domain.User) error
	Touch(id string, at time.Time) error
	ListActive(maxAge time.Duration, limit int) ([]domain.User, error)
	DeleteInactiveSince(threshold time.Time) (int, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// diskUser is the stored representation of a user.
// Timestamps are kept as UnixNano for cheap comparisons.
type diskUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	CreatedAt int64  `json:"created_at"`
	LastSeen  int64  `json:"last_seen"`
}

func userKey(id string) []byte {
	return []byte("user:" + id)
}

func (u UserRepository) CreateUser(user domain.User) error {
	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		key := userKey(user.ID)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExist
		}
		return txn.Set(key, data)
	})
}

func (u UserRepository) GetUser(id string) (domain.User, error) {
	var du diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(du), nil
}

func (u UserRepository) UpdateUser(user domain.User) error {
	data, err := json.Marshal(fromUser(user))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		key := userKey(user.ID)
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		return txn.Set(key, data)
	})
}

// Touch refreshes the liveness timestamp. LastSeen is monotonically
// non-decreasing: a touch with an older timestamp is ignored.
func (u UserRepository) Touch(id string, at time.Time) error {
	err := u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		var du diskUser
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		}); err != nil {
			return err
		}
		if at.UnixNano() <= du.LastSeen {
			return nil
		}
		du.LastSeen = at.UnixNano()
		data, err := json.Marshal(du)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
	if err == badger.ErrKeyNotFound {
		return errors.ErrUserNotFound
	}
	return err
}

// ListActive returns users seen within maxAge, most recent first, capped
// at limit. This bounds the roster cost and naturally drops idle users.
func (u UserRepository) ListActive(maxAge time.Duration, limit int) ([]domain.User, error) {
	oldest := time.Now().UTC().Add(-maxAge).UnixNano()
	var active []diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var du diskUser
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &du)
			}); err != nil {
				return err
			}
			if du.LastSeen >= oldest {
				active = append(active, du)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].LastSeen > active[j].LastSeen
	})
	if len(active) > limit {
		active = active[:limit]
	}
	return lo.Map(active, func(du diskUser, _ int) domain.User {
		return toUser(du)
	}), nil
}

// DeleteInactiveSince removes every user whose LastSeen is older than
// threshold and reports how many were deleted.
func (u UserRepository) DeleteInactiveSince(threshold time.Time) (int, error) {
	deleted := 0
	err := u.db.Update(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		var stale [][]byte
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var du diskUser
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &du)
			}); err != nil {
				it.Close()
				return err
			}
			if du.LastSeen < threshold.UnixNano() {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		it.Close()
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(stale)
		return nil
	})
	return deleted, err
}

func fromUser(user domain.User) diskUser {
	return diskUser{
		ID:        user.ID,
		Name:      user.Name,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt.UnixNano(),
		LastSeen:  user.LastSeen.UnixNano(),
	}
}

func toUser(du diskUser) domain.User {
	return domain.User{
		ID:        du.ID,
		Name:      du.Name,
		Avatar:    du.Avatar,
		CreatedAt: time.Unix(0, du.CreatedAt).UTC(),
		LastSeen:  time.Unix(0, du.LastSeen).UTC(),
	}
}
