package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/model"
	"github.com/chankruze/liber/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table.
type UserDB struct {
	*DB
}

// Create inserts a new user, assigning its ID and timestamps.
// A taken email or handle surfaces as apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := u.now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, handle, name, email, password, avatar, bio, ip, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Handle,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.Bio,
		user.IP,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email or handle already in use")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return acknowledged(res)
}

// GetByID returns the full record, password hash included.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, handle, name, email, password, avatar, bio, ip, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&user.ID,
		&user.Handle,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.Bio,
		&user.IP,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &user, nil
}

// GetByEmail returns the record used by login. The registration IP is not
// selected.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User

	err := u.conn.QueryRowContext(ctx,
		`SELECT id, handle, name, email, password, avatar, bio, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(
		&user.ID,
		&user.Handle,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("user not found with email %s", email))
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return &user, nil
}

// GetProfileByHandle returns only the public projection of a user.
func (u *UserDB) GetProfileByHandle(ctx context.Context, handle string) (*model.PublicProfile, error) {
	var p model.PublicProfile

	err := u.conn.QueryRowContext(ctx,
		`SELECT name, avatar, bio FROM users WHERE handle = ?`,
		handle,
	).Scan(&p.Name, &p.Avatar, &p.Bio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("user not found with handle %s", handle))
		}
		return nil, fmt.Errorf("sqlite: getting user by handle: %w", err)
	}

	return &p, nil
}

// List returns users newest first, without password hash or IP.
func (u *UserDB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := limitOffset(opts)

	rows, err := u.conn.QueryContext(ctx,
		`SELECT id, handle, name, email, avatar, bio, created_at, updated_at
		 FROM users
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID,
			&user.Handle,
			&user.Name,
			&user.Email,
			&user.Avatar,
			&user.Bio,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

func (u *UserDB) EmailExists(ctx context.Context, email string) (bool, error) {
	return u.exists(ctx, "email", email)
}

func (u *UserDB) HandleExists(ctx context.Context, handle string) (bool, error) {
	return u.exists(ctx, "handle", handle)
}

// exists checks a unique column. column is always a constant from this file.
func (u *UserDB) exists(ctx context.Context, column, value string) (bool, error) {
	var found bool
	err := u.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE `+column+` = ?)`,
		value,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking user %s: %w", column, err)
	}
	return found, nil
}

// Update writes every mutable column and refreshes UpdatedAt.
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = u.now()

	res, err := u.conn.ExecContext(ctx,
		`UPDATE users
		 SET handle = ?, name = ?, email = ?, password = ?, avatar = ?, bio = ?, updated_at = ?
		 WHERE id = ?`,
		user.Handle,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.Bio,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email or handle already in use")
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	return affectedOrNotFound(res, "user", user.ID)
}

func (u *UserDB) Delete(ctx context.Context, id string) error {
	res, err := u.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return affectedOrNotFound(res, "user", id)
}
