package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/model"
	"github.com/chankruze/liber/internal/repository"
)

const (
	MaxLabelLength = 200
	MaxURLLength   = 2048
)

// CreateLinkInput is the body of POST /links.
type CreateLinkInput struct {
	Label     string `json:"label"`
	URL       string `json:"url"`
	IsPrivate bool   `json:"isPrivate"`
}

func (in CreateLinkInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Label, validation.Required, validation.Length(1, MaxLabelLength)),
		validation.Field(&in.URL, validation.Required, validation.Length(1, MaxURLLength), is.URL),
	)
}

// UpdateLinkInput is a partial update; nil fields are left unchanged.
// Ownership and folder membership cannot be changed here.
type UpdateLinkInput struct {
	Label     *string `json:"label"`
	URL       *string `json:"url"`
	IsPrivate *bool   `json:"isPrivate"`
}

func (in UpdateLinkInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Label, validation.NilOrNotEmpty, validation.Length(1, MaxLabelLength)),
		validation.Field(&in.URL, validation.NilOrNotEmpty, validation.Length(1, MaxURLLength), is.URL),
	)
}

// LinkService is the link store: CRUD, visibility and folder membership.
type LinkService struct {
	links   repository.LinkRepository
	folders repository.FolderRepository
	logger  *slog.Logger
}

func NewLinkService(links repository.LinkRepository, folders repository.FolderRepository, logger *slog.Logger) *LinkService {
	return &LinkService{
		links:   links,
		folders: folders,
		logger:  logger,
	}
}

// Create saves a new link owned by ownerID with an empty folder set.
func (s *LinkService) Create(ctx context.Context, in CreateLinkInput, ownerID string) (*model.Created, error) {
	in.Label = strings.TrimSpace(in.Label)
	in.URL = strings.TrimSpace(in.URL)
	if err := validate(in); err != nil {
		return nil, err
	}

	link := &model.Link{
		Label:     in.Label,
		URL:       in.URL,
		IsPrivate: in.IsPrivate,
		OwnerID:   ownerID,
		FolderIDs: []string{},
	}
	if err := s.links.Create(ctx, link); err != nil {
		s.logger.Error("failed to create link",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, createError("link", err)
	}

	s.logger.Info("link created",
		slog.String("id", link.ID),
		slog.String("owner_id", ownerID),
	)
	return &model.Created{OK: true, ID: link.ID}, nil
}

// FindAll returns public links plus the caller's own, newest first.
func (s *LinkService) FindAll(ctx context.Context, callerID string, opts repository.ListOptions) ([]model.Link, error) {
	links, err := s.links.ListVisible(ctx, callerID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	return links, nil
}

// FindOne hides another user's private link as NotFound.
func (s *LinkService) FindOne(ctx context.Context, id, callerID string) (*model.Link, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanView(link, callerID) {
		return nil, apperror.NotFound("link", id)
	}
	return link, nil
}

// owned loads a link and applies the ownership gate.
func (s *LinkService) owned(ctx context.Context, id, callerID string) (*model.Link, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertOwner(link, callerID, "link"); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) Update(ctx context.Context, id string, in UpdateLinkInput, callerID string) (*model.Link, error) {
	if in.Label != nil {
		*in.Label = strings.TrimSpace(*in.Label)
	}
	if in.URL != nil {
		*in.URL = strings.TrimSpace(*in.URL)
	}
	link, err := s.owned(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	if in.Label != nil {
		link.Label = *in.Label
	}
	if in.URL != nil {
		link.URL = *in.URL
	}
	if in.IsPrivate != nil {
		link.IsPrivate = *in.IsPrivate
	}

	if err := s.links.Update(ctx, link); err != nil {
		s.logger.Error("failed to update link",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, writeError("update", "link", err)
	}
	return link, nil
}

func (s *LinkService) Remove(ctx context.Context, id, callerID string) (bool, error) {
	if _, err := s.owned(ctx, id, callerID); err != nil {
		return false, err
	}

	if err := s.links.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete link",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, writeError("delete", "link", err)
	}

	s.logger.Info("link removed", slog.String("id", id))
	return true, nil
}

// GetPublicLinks lists ownerID's public links.
func (s *LinkService) GetPublicLinks(ctx context.Context, ownerID string) ([]model.Link, error) {
	links, err := s.links.ListPublicByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing public links: %w", err)
	}
	return links, nil
}

// AddToFolder puts a link into one of the caller's folders. Adding a link
// that is already in the folder leaves a single occurrence.
func (s *LinkService) AddToFolder(ctx context.Context, linkID, folderID, callerID string) error {
	link, err := s.owned(ctx, linkID, callerID)
	if err != nil {
		return err
	}

	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if err := assertOwner(folder, callerID, "folder"); err != nil {
		return err
	}

	link.FolderIDs = link.WithFolder(folderID)
	if err := s.links.Update(ctx, link); err != nil {
		s.logger.Error("failed to add link to folder",
			slog.String("link_id", linkID),
			slog.String("folder_id", folderID),
			slog.String("error", err.Error()),
		)
		return writeError("update", "link", err)
	}
	return nil
}

// RemoveFromFolder takes a link out of a folder. A link that is not in the
// folder is left untouched.
func (s *LinkService) RemoveFromFolder(ctx context.Context, linkID, folderID, callerID string) error {
	link, err := s.owned(ctx, linkID, callerID)
	if err != nil {
		return err
	}
	if !link.InFolder(folderID) {
		return nil
	}

	link.FolderIDs = link.WithoutFolder(folderID)
	if err := s.links.Update(ctx, link); err != nil {
		s.logger.Error("failed to remove link from folder",
			slog.String("link_id", linkID),
			slog.String("folder_id", folderID),
			slog.String("error", err.Error()),
		)
		return writeError("update", "link", err)
	}
	return nil
}

// GetLinksInFolder lists a folder's links; private ones only when
// showPrivate is set.
func (s *LinkService) GetLinksInFolder(ctx context.Context, folderID string, showPrivate bool) ([]model.Link, error) {
	links, err := s.links.ListInFolder(ctx, folderID, showPrivate)
	if err != nil {
		return nil, fmt.Errorf("listing links in folder: %w", err)
	}
	return links, nil
}

// DetachFolder drops folderID from every link's folder set.
func (s *LinkService) DetachFolder(ctx context.Context, folderID string) (int64, error) {
	n, err := s.links.DetachFolder(ctx, folderID)
	if err != nil {
		return 0, fmt.Errorf("detaching folder: %w", err)
	}
	return n, nil
}
