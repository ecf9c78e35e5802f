package services

import (
	"chatify/domain"
	"chatify/errors"
	"chatify/repositories"
	"chatify/search"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

type IProfileService interface {
	Search(ctx context.Context, prefix string) ([]domain.Profile, error)
	UsernameAvailable(username string) (bool, error)
	Setup(identity domain.Identity, profile domain.Profile) error
	Edit(identity domain.Identity, profile domain.Profile) error
	Get(uid string) (domain.Profile, error)
}

// ProfileService owns plain profile lookups and edits. No invariants
// beyond username uniqueness live here; the conversation core never
// depends on it.
type ProfileService struct {
	log      *slog.Logger
	users    repositories.IUserRepository
	index    search.IUserIndex
	validate *validator.Validate
}

func NewProfileService(log *slog.Logger, users repositories.IUserRepository, index search.IUserIndex) *ProfileService {
	return &ProfileService{
		log:      log,
		users:    users,
		index:    index,
		validate: validator.New(),
	}
}

// profileRules carries the validation tags applied on setup and edit.
type profileRules struct {
	Username string `validate:"required,min=3,max=32,excludesall= 0x7C"`
	Name     string `validate:"max=64"`
	Email    string `validate:"omitempty,email"`
	About    string `validate:"max=280"`
}

func (s *ProfileService) validateProfile(p domain.Profile) error {
	return s.validate.Struct(profileRules{
		Username: p.Username,
		Name:     p.Name,
		Email:    p.Email,
		About:    p.About,
	})
}

// Search returns the public profiles whose username starts with prefix,
// ordered by username ascending.
func (s *ProfileService) Search(ctx context.Context, prefix string) ([]domain.Profile, error) {
	uids, err := s.index.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var profiles []domain.Profile
	for _, uid := range uids {
		profile, err := s.users.GetByUID(uid)
		if err != nil {
			// Index lag after a failed write; the store remains the
			// source of truth.
			s.log.Warn("indexed uid without profile, skipping", "u_id", uid, "error", err)
			continue
		}
		profiles = append(profiles, profile.Public())
	}
	return profiles, nil
}

func (s *ProfileService) UsernameAvailable(username string) (bool, error) {
	return s.users.UsernameAvailable(username)
}

// Setup registers the authenticated identity's first profile and feeds
// the search index.
func (s *ProfileService) Setup(identity domain.Identity, profile domain.Profile) error {
	if identity.IsAnonymous() {
		return errors.ErrUnauthenticated
	}
	profile.UID = identity.UID
	if err := s.validateProfile(profile); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if err := s.users.Create(profile); err != nil {
		return err
	}
	if err := s.index.Index(profile.UID, profile.Username); err != nil {
		// Searchability lags until the next successful index write; the
		// profile itself is durable.
		s.log.Error("profile stored but not indexed", "u_id", profile.UID, "error", err)
	}
	return nil
}

// Edit replaces the stored profile wholesale and re-indexes the
// username.
func (s *ProfileService) Edit(identity domain.Identity, profile domain.Profile) error {
	if identity.IsAnonymous() {
		return errors.ErrUnauthenticated
	}
	profile.UID = identity.UID
	if err := s.validateProfile(profile); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if err := s.users.Replace(profile); err != nil {
		return err
	}
	if err := s.index.Index(profile.UID, profile.Username); err != nil {
		s.log.Error("profile replaced but not re-indexed", "u_id", profile.UID, "error", err)
	}
	return nil
}

func (s *ProfileService) Get(uid string) (domain.Profile, error) {
	return s.users.GetByUID(uid)
}
