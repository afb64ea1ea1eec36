package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/auth"
	"github.com/chankruze/liber/internal/avatar"
	"github.com/chankruze/liber/internal/model"
	"github.com/chankruze/liber/internal/repository"
)

const (
	MaxHandleLength   = 32
	MaxNameLength     = 100
	MaxBioLength      = 300
	MinPasswordLength = 8
)

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Handle   string `json:"handle"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) normalize() {
	in.Handle = strings.TrimSpace(in.Handle)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Handle, validation.Required, validation.Length(1, MaxHandleLength)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, MaxNameLength)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(MinPasswordLength, auth.MaxPasswordBytes)),
	)
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Handle   *string `json:"handle"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Bio      *string `json:"bio"`
}

func (in *UpdateUserInput) normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(in.Handle)
	trim(in.Name)
	trim(in.Bio)
	if in.Email != nil {
		*in.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
}

func (in UpdateUserInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Handle, validation.NilOrNotEmpty, validation.Length(1, MaxHandleLength)),
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, MaxNameLength)),
		validation.Field(&in.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&in.Password, validation.NilOrNotEmpty, validation.Length(MinPasswordLength, auth.MaxPasswordBytes)),
		validation.Field(&in.Bio, validation.Length(0, MaxBioLength)),
	)
}

// UserService is the user directory: registration, lookup, profile
// updates and account removal.
type UserService struct {
	users     repository.UserRepository
	links     repository.LinkRepository
	folders   repository.FolderRepository
	passwords *auth.PasswordService
	avatars   avatar.Generator
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	links repository.LinkRepository,
	folders repository.FolderRepository,
	passwords *auth.PasswordService,
	avatars avatar.Generator,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		links:     links,
		folders:   folders,
		passwords: passwords,
		avatars:   avatars,
		logger:    logger,
	}
}

// Create registers a new account. originIP is stored but never served.
func (s *UserService) Create(ctx context.Context, in RegisterInput, originIP string) (*model.User, error) {
	in.normalize()
	if err := validate(in); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return nil, apperror.Conflict(fmt.Sprintf("user already exists with email %s", in.Email))
	}

	taken, err = s.users.HandleExists(ctx, in.Handle)
	if err != nil {
		return nil, fmt.Errorf("checking handle: %w", err)
	}
	if taken {
		return nil, apperror.Conflict(fmt.Sprintf("handle %s is already taken", in.Handle))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	avatarURI, err := s.avatars.Generate(in.Handle)
	if err != nil {
		return nil, fmt.Errorf("generating avatar: %w", err)
	}

	user := &model.User{
		Handle:       in.Handle,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Avatar:       avatarURI,
		Bio:          model.DefaultBio,
		IP:           originIP,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user",
			slog.String("handle", in.Handle),
			slog.String("error", err.Error()),
		)
		return nil, createError("user", err)
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("handle", user.Handle),
	)
	return user, nil
}

// FindAll lists users without password hash or IP.
func (s *UserService) FindAll(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// FindOne returns the full record, password hash included. The hash never
// reaches the wire because model.User does not serialise it.
func (s *UserService) FindOne(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *UserService) FindByHandle(ctx context.Context, handle string) (*model.PublicProfile, error) {
	return s.users.GetProfileByHandle(ctx, handle)
}

func (s *UserService) HandleExists(ctx context.Context, handle string) (bool, error) {
	return s.users.HandleExists(ctx, handle)
}

// Update applies a partial update to the caller's own account.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput, callerID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(user, callerID, "user"); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validate(in); err != nil {
		return nil, err
	}

	if in.Email != nil && *in.Email != user.Email {
		taken, err := s.users.EmailExists(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("checking email: %w", err)
		}
		if taken {
			return nil, apperror.Conflict(fmt.Sprintf("user already exists with email %s", *in.Email))
		}
		user.Email = *in.Email
	}
	if in.Handle != nil && *in.Handle != user.Handle {
		taken, err := s.users.HandleExists(ctx, *in.Handle)
		if err != nil {
			return nil, fmt.Errorf("checking handle: %w", err)
		}
		if taken {
			return nil, apperror.Conflict(fmt.Sprintf("handle %s is already taken", *in.Handle))
		}
		user.Handle = *in.Handle
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Password != nil {
		hash, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, writeError("update", "user", err)
	}

	s.logger.Info("user updated", slog.String("id", id))
	return user, nil
}

// Remove deletes the caller's own account, then the links and folders it
// owned. The cleanup steps are independent writes; a failure there is
// logged and does not undo the account deletion.
func (s *UserService) Remove(ctx context.Context, id, callerID string) (bool, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := assertOwner(user, callerID, "user"); err != nil {
		return false, err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, writeError("delete", "user", err)
	}

	links, err := s.links.DeleteByOwner(ctx, id)
	if err != nil {
		s.logger.Warn("failed to delete links of removed user",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	folders, err := s.folders.DeleteByOwner(ctx, id)
	if err != nil {
		s.logger.Warn("failed to delete folders of removed user",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("user removed",
		slog.String("id", id),
		slog.Int64("links", links),
		slog.Int64("folders", folders),
	)
	return true, nil
}

// isNotFound is shorthand for errors.Is(err, apperror.ErrNotFound).
func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
