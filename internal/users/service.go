package users

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service manages the user lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns all registered users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns the user with the given identifier.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a user after checking the id card is not taken.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	idCard := strings.TrimSpace(input.IDCard)

	_, err := s.repo.FindByIDCard(ctx, idCard)
	switch {
	case err == nil:
		return User{}, ErrDuplicateIDCard
	case !errors.Is(err, ErrUserNotFound):
		return User{}, err
	}

	return s.repo.Create(ctx, User{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		IDCard:    idCard,
		CreatedAt: s.now().UTC(),
	})
}

// Update replaces the name and phone of an existing user.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)
	user.Phone = strings.TrimSpace(input.Phone)
	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}
