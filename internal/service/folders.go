package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/model"
	"github.com/chankruze/liber/internal/repository"
)

const MaxFolderNameLength = 100

// CreateFolderInput is the body of POST /folders. Duplicate names are
// allowed.
type CreateFolderInput struct {
	Name      string `json:"name"`
	IsPrivate bool   `json:"isPrivate"`
}

func (in CreateFolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, MaxFolderNameLength)),
	)
}

type UpdateFolderInput struct {
	Name      *string `json:"name"`
	IsPrivate *bool   `json:"isPrivate"`
}

func (in UpdateFolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, MaxFolderNameLength)),
	)
}

// FolderService is the folder store. Membership lives on links, so listing a
// folder's contents and cleaning up after a delete go through LinkService.
type FolderService struct {
	folders repository.FolderRepository
	links   *LinkService
	logger  *slog.Logger
}

func NewFolderService(folders repository.FolderRepository, links *LinkService, logger *slog.Logger) *FolderService {
	return &FolderService{
		folders: folders,
		links:   links,
		logger:  logger,
	}
}

func (s *FolderService) Create(ctx context.Context, in CreateFolderInput, ownerID string) (*model.Created, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}

	folder := &model.Folder{
		Name:      in.Name,
		IsPrivate: in.IsPrivate,
		OwnerID:   ownerID,
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		s.logger.Error("failed to create folder",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, createError("folder", err)
	}

	s.logger.Info("folder created",
		slog.String("id", folder.ID),
		slog.String("owner_id", ownerID),
	)
	return &model.Created{OK: true, ID: folder.ID}, nil
}

func (s *FolderService) FindAll(ctx context.Context, callerID string, opts repository.ListOptions) ([]model.Folder, error) {
	folders, err := s.folders.ListVisible(ctx, callerID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

func (s *FolderService) FindOne(ctx context.Context, id, callerID string) (*model.Folder, error) {
	folder, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanView(folder, callerID) {
		return nil, apperror.NotFound("folder", id)
	}
	return folder, nil
}

func (s *FolderService) owned(ctx context.Context, id, callerID string) (*model.Folder, error) {
	folder, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(folder, callerID, "folder"); err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *FolderService) Update(ctx context.Context, id string, in UpdateFolderInput, callerID string) (*model.Folder, error) {
	if in.Name != nil {
		*in.Name = strings.TrimSpace(*in.Name)
	}
	folder, err := s.owned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	if in.Name != nil {
		folder.Name = *in.Name
	}
	if in.IsPrivate != nil {
		folder.IsPrivate = *in.IsPrivate
	}

	if err := s.folders.Update(ctx, folder); err != nil {
		s.logger.Error("failed to update folder",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, writeError("update", "folder", err)
	}
	return folder, nil
}

// Remove deletes the folder, then detaches it from every link. A failed
// detach is logged; links keep a dangling id until the next attempt.
func (s *FolderService) Remove(ctx context.Context, id, callerID string) (bool, error) {
	if _, err := s.owned(ctx, id, callerID); err != nil {
		return false, err
	}

	if err := s.folders.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete folder",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, writeError("delete", "folder", err)
	}

	detached, err := s.links.DetachFolder(ctx, id)
	if err != nil {
		s.logger.Warn("failed to detach removed folder from links",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("folder removed",
		slog.String("id", id),
		slog.Int64("links_detached", detached),
	)
	return true, nil
}

// GetAllFolders lists ownerID's folders: all of them for the owner, public
// ones for anyone else. Most recently updated first.
func (s *FolderService) GetAllFolders(ctx context.Context, ownerID, callerID string) ([]model.Folder, error) {
	isOwner := callerID != "" && callerID == ownerID
	folders, err := s.folders.ListByOwner(ctx, ownerID, isOwner)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

// GetAllLinksInFolder lists a folder's links as seen by callerID. The owner
// sees private links too; a private folder does not exist for anyone else.
func (s *FolderService) GetAllLinksInFolder(ctx context.Context, folderID, callerID string) ([]model.Link, error) {
	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !model.CanView(folder, callerID) {
		return nil, apperror.NotFound("folder", folderID)
	}

	isOwner := callerID != "" && folder.OwnerID == callerID
	return s.links.GetLinksInFolder(ctx, folderID, isOwner)
}
