package service

// AuthService issues credentials. It sits between the HTTP handlers and the
// user directory:
//
//	AuthHandler (HTTP) → AuthService → UserService → UserRepository (DB)
//	                   ↘ TokenService (JWT)  ↘ PasswordService (bcrypt)
//
// Tokens are stateless: nothing is stored server-side, so a refresh token
// stays valid until it expires. There is no revocation.

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
	"github.com/chankruze/liber/internal/model"
)

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required),
	)
}

// AuthService handles registration, login and token refresh.
type AuthService struct {
	users     *UserService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users *UserService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates the account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, ip string) (*model.TokenPair, error) {
	user, err := s.users.Create(ctx, in, ip)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login checks an email/password pair.
//
// An unknown email is NotFound and a wrong password is Unauthorized. Failed
// attempts are logged, never persisted.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*model.TokenPair, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if isNotFound(err) {
			s.logger.Warn("login failed: unknown email", slog.String("email", in.Email))
		}
		return nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("login failed: wrong password",
				slog.String("email", in.Email),
				slog.String("user_id", user.ID),
			)
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.issue(user)
}

// Refresh re-mints both tokens from a valid refresh token. Any invalid,
// expired or malformed token is Forbidden.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, auth.TokenRefresh)
	if err != nil {
		s.logger.Debug("refresh rejected", slog.String("error", err.Error()))
		return nil, apperror.Forbidden("invalid refresh token")
	}

	access, refresh, err := s.tokens.IssuePair(claims.Identity())
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// LoginGitHub signs in the existing account whose email matches the GitHub
// primary email. GitHub sign-in never creates accounts.
func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*model.TokenPair, error) {
	if ghUser == nil || ghUser.Email == "" {
		return nil, apperror.ValidationFailed("email", "GitHub account has no usable email")
	}

	user, err := s.users.FindByEmail(ctx, ghUser.Email)
	if err != nil {
		if isNotFound(err) {
			s.logger.Warn("github login failed: no matching account",
				slog.String("login", ghUser.Login),
				slog.String("email", ghUser.Email),
			)
			return nil, apperror.NotFoundMessage("no account is registered with this GitHub email")
		}
		return nil, err
	}

	s.logger.Info("user logged in with github",
		slog.String("user_id", user.ID),
		slog.String("github_login", ghUser.Login),
	)
	return s.issue(user)
}

// Me returns the caller's own record.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("valid authentication required")
	}
	return s.users.FindOne(ctx, userID)
}

func (s *AuthService) issue(user *model.User) (*model.TokenPair, error) {
	access, refresh, err := s.tokens.IssuePair(auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Handle: user.Handle,
		Name:   user.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
