// Package repository defines the storage contracts the service layer depends
// on. Implementations live in sub-packages (see repository/sqlite).
//
// Services only ever see these interfaces, so tests can swap in hand-written
// fakes and the storage engine can change without touching business logic.
package repository

import (
	"context"
	"errors"

	"github.com/chankruze/liber/internal/model"
)

// ErrNotAcknowledged is returned when a write completed without error but the
// store reports that no row was affected.
var ErrNotAcknowledged = errors.New("repository: write not acknowledged")

// ListOptions pages a listing. Limit <= 0 means no limit.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores accounts. Lookups that miss return an
// apperror.ErrNotFound-wrapping error.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail omits the registration IP.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetProfileByHandle(ctx context.Context, handle string) (*model.PublicProfile, error)
	// List omits the password hash and registration IP.
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// LinkRepository stores links and their folder membership.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByID(ctx context.Context, id string) (*model.Link, error)
	// ListVisible returns public links plus those owned by callerID,
	// newest first.
	ListVisible(ctx context.Context, callerID string, opts ListOptions) ([]model.Link, error)
	ListPublicByOwner(ctx context.Context, ownerID string) ([]model.Link, error)
	ListInFolder(ctx context.Context, folderID string, includePrivate bool) ([]model.Link, error)
	Update(ctx context.Context, link *model.Link) error
	Delete(ctx context.Context, id string) error
	// DetachFolder removes folderID from every link's folder set and
	// returns the number of links changed.
	DetachFolder(ctx context.Context, folderID string) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// FolderRepository stores folders.
type FolderRepository interface {
	Create(ctx context.Context, folder *model.Folder) error
	GetByID(ctx context.Context, id string) (*model.Folder, error)
	ListVisible(ctx context.Context, callerID string, opts ListOptions) ([]model.Folder, error)
	// ListByOwner is sorted by updatedAt then createdAt, both descending.
	ListByOwner(ctx context.Context, ownerID string, includePrivate bool) ([]model.Folder, error)
	Update(ctx context.Context, folder *model.Folder) error
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
