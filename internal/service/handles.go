package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/model"
)

// Availability answers a handle availability check.
type Availability struct {
	IsAvailable bool `json:"isAvailable"`
}

// HandleService resolves public handles.
type HandleService struct {
	users *UserService
}

func NewHandleService(users *UserService) *HandleService {
	return &HandleService{users: users}
}

// CheckAvailability never fails on a taken handle; it reports it.
func (s *HandleService) CheckAvailability(ctx context.Context, handle string) (*Availability, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, apperror.ValidationFailed("handle", "handle is required")
	}

	taken, err := s.users.HandleExists(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("checking handle: %w", err)
	}
	return &Availability{IsAvailable: !taken}, nil
}

// GetUserDetails returns the public profile for handle.
func (s *HandleService) GetUserDetails(ctx context.Context, handle string) (*model.PublicProfile, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, apperror.ValidationFailed("handle", "handle is required")
	}
	return s.users.FindByHandle(ctx, handle)
}
