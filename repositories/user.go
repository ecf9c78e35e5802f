package repositories

import (
	"chatify/domain"
	"chatify/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	Create(profile domain.Profile) error
	Replace(profile domain.Profile) error
	GetByUID(uid string) (domain.Profile, error)
	UsernameAvailable(username string) (bool, error)
}

// UserRepository stores profiles twice: the record under the identity's
// uid and a pointer under the username. The pointer doubles as the
// uniqueness constraint for usernames.
type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

func userKey(uid string) []byte {
	return []byte("user:id:" + uid)
}

func usernameKey(username string) []byte {
	return []byte("user:name:" + username)
}

// Create registers a first-time profile. Fails if the identity already
// has one or the username is taken.
func (u UserRepository) Create(profile domain.Profile) error {
	record, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(profile.UID)); err == nil {
			return errors.ErrAlreadyRegistered
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if _, err := txn.Get(usernameKey(profile.Username)); err == nil {
			return errors.ErrUsernameTaken
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(usernameKey(profile.Username), []byte(profile.UID)); err != nil {
			return err
		}
		return txn.Set(userKey(profile.UID), record)
	})
	return u.mapWriteErr(err, "create profile")
}

// Replace swaps the stored profile wholesale, keeping the username
// pointer in sync when the username changed.
func (u UserRepository) Replace(profile domain.Profile) error {
	record, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(profile.UID))
		if err != nil {
			return err
		}
		var previous domain.Profile
		if err = item.Value(func(value []byte) error {
			return json.Unmarshal(value, &previous)
		}); err != nil {
			return err
		}

		if previous.Username != profile.Username {
			if _, err := txn.Get(usernameKey(profile.Username)); err == nil {
				return errors.ErrUsernameTaken
			} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete(usernameKey(previous.Username)); err != nil {
				return err
			}
			if err := txn.Set(usernameKey(profile.Username), []byte(profile.UID)); err != nil {
				return err
			}
		}
		return txn.Set(userKey(profile.UID), record)
	})
	return u.mapWriteErr(err, "replace profile")
}

func (u UserRepository) GetByUID(uid string) (domain.Profile, error) {
	var profile domain.Profile
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(uid))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &profile)
		})
	})
	switch {
	case err == nil:
		return profile, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return domain.Profile{}, errors.ErrNotFound
	default:
		return domain.Profile{}, fmt.Errorf("%w: get profile: %v", errors.ErrStorageUnavailable, err)
	}
}

// UsernameAvailable reports whether no profile holds the username yet.
func (u UserRepository) UsernameAvailable(username string) (bool, error) {
	err := u.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(usernameKey(username))
		return err
	})
	switch {
	case err == nil:
		return false, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("%w: check username: %v", errors.ErrStorageUnavailable, err)
	}
}

func (u UserRepository) mapWriteErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, errors.ErrAlreadyRegistered),
		stderrors.Is(err, errors.ErrUsernameTaken):
		return err
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return errors.ErrNotFound
	default:
		return fmt.Errorf("%w: %s: %v", errors.ErrStorageUnavailable, op, err)
	}
}
