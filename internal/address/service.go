package address

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the saved address does not exist for the user.
var ErrNotFound = errors.New("address not found")

// Remote is the address book held by the remote order service.
type Remote interface {
	ListAddresses(ctx context.Context, userID string) ([]Address, error)
	CreateAddress(ctx context.Context, userID string, a Address) (Address, error)
	UpdateAddress(ctx context.Context, userID string, a Address) (Address, error)
}

// Service validates address book writes before they reach the remote service.
type Service struct {
	Remote Remote
}

// List returns the user's saved addresses.
func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	if s == nil || s.Remote == nil {
		return nil, errors.New("address service not configured")
	}
	return s.Remote.ListAddresses(ctx, userID)
}

// Get finds one saved address by id.
func (s *Service) Get(ctx context.Context, userID, id string) (Address, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	for _, a := range list {
		if a.ID == id {
			return a, nil
		}
	}
	return Address{}, ErrNotFound
}

// Create validates and stores a new address. Any id on the input is ignored.
func (s *Service) Create(ctx context.Context, userID string, a Address) (Address, error) {
	if s == nil || s.Remote == nil {
		return Address{}, errors.New("address service not configured")
	}
	a = normalise(a)
	a.ID = ""
	if err := Validate(a); err != nil {
		return Address{}, err
	}
	return s.Remote.CreateAddress(ctx, userID, a)
}

// Update validates and overwrites an existing address.
func (s *Service) Update(ctx context.Context, userID, id string, a Address) (Address, error) {
	if s == nil || s.Remote == nil {
		return Address{}, errors.New("address service not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Address{}, fmt.Errorf("address id required: %w", ErrNotFound)
	}
	a = normalise(a)
	a.ID = id
	if err := Validate(a); err != nil {
		return Address{}, err
	}
	return s.Remote.UpdateAddress(ctx, userID, a)
}
