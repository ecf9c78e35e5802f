package repositories

import (
	"chatify/domain"
	"chatify/errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Create_And_Get_Profile(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t), slog.Default())
	profile := domain.Profile{
		UID:      "u-1",
		Username: "alice",
		Name:     "Alice",
		Email:    "alice@example.com",
		About:    "hey there",
	}

	req.NoError(repository.Create(profile))

	stored, err := repository.GetByUID("u-1")
	req.NoError(err)
	req.Equal(profile, stored)
}

func Test_Create_Twice_For_Same_Identity(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t), slog.Default())

	req.NoError(repository.Create(domain.Profile{UID: "u-1", Username: "alice"}))

	err := repository.Create(domain.Profile{UID: "u-1", Username: "alice2"})
	req.ErrorIs(err, errors.ErrAlreadyRegistered)
}

func Test_Create_With_Taken_Username(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t), slog.Default())

	req.NoError(repository.Create(domain.Profile{UID: "u-1", Username: "alice"}))

	err := repository.Create(domain.Profile{UID: "u-2", Username: "alice"})
	req.ErrorIs(err, errors.ErrUsernameTaken)
}

func Test_Replace_Renames_Username_Pointer(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t), slog.Default())

	req.NoError(repository.Create(domain.Profile{UID: "u-1", Username: "alice"}))

	// When the username changes
	req.NoError(repository.Replace(domain.Profile{UID: "u-1", Username: "alice_new"}))

	// Then the old name is free again and the new one is held
	available, err := repository.UsernameAvailable("alice")
	req.NoError(err)
	req.True(available)

	available, err = repository.UsernameAvailable("alice_new")
	req.NoError(err)
	req.False(available)
}

func Test_Replace_Rejects_Taken_Username(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t), slog.Default())

	req.NoError(repository.Create(domain.Profile{UID: "u-1", Username: "alice"}))
	req.NoError(repository.Create(domain.Profile{UID: "u-2", Username: "bob"}))

	err := repository.Replace(domain.Profile{UID: "u-2", Username: "alice"})
	req.ErrorIs(err, errors.ErrUsernameTaken)

	// The original profile is untouched
	stored, err := repository.GetByUID("u-2")
	req.NoError(err)
	req.Equal("bob", stored.Username)
}

func Test_GetByUID_Unknown(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(newTestDB(t), slog.Default())

	_, err := repository.GetByUID("nobody")
	req.ErrorIs(err, errors.ErrNotFound)
}
