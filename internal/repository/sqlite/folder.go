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

var _ repository.FolderRepository = (*FolderDB)(nil)

// FolderDB is the folders table.
type FolderDB struct {
	*DB
}

const folderColumns = `id, name, is_private, owner_id, created_at, updated_at`

func scanFolder(s scanner) (*model.Folder, error) {
	var f model.Folder
	if err := s.Scan(
		&f.ID,
		&f.Name,
		&f.IsPrivate,
		&f.OwnerID,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *FolderDB) Create(ctx context.Context, folder *model.Folder) error {
	now := f.now()
	folder.ID = xid.New().String()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	res, err := f.conn.ExecContext(ctx,
		`INSERT INTO folders (`+folderColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		folder.ID,
		folder.Name,
		folder.IsPrivate,
		folder.OwnerID,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating folder: %w", err)
	}
	return acknowledged(res)
}

func (f *FolderDB) GetByID(ctx context.Context, id string) (*model.Folder, error) {
	folder, err := scanFolder(f.conn.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("folder", id)
		}
		return nil, fmt.Errorf("sqlite: getting folder %s: %w", id, err)
	}
	return folder, nil
}

func (f *FolderDB) ListVisible(ctx context.Context, callerID string, opts repository.ListOptions) ([]model.Folder, error) {
	limit, offset := limitOffset(opts)
	return f.query(ctx, "listing folders",
		`SELECT `+folderColumns+` FROM folders
		 WHERE is_private = 0 OR owner_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		callerID, limit, offset,
	)
}

func (f *FolderDB) ListByOwner(ctx context.Context, ownerID string, includePrivate bool) ([]model.Folder, error) {
	return f.query(ctx, "listing folders by owner",
		`SELECT `+folderColumns+` FROM folders
		 WHERE owner_id = ? AND (? OR is_private = 0)
		 ORDER BY updated_at DESC, created_at DESC, id DESC`,
		ownerID, includePrivate,
	)
}

func (f *FolderDB) query(ctx context.Context, op, q string, args ...any) ([]model.Folder, error) {
	rows, err := f.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	folders := make([]model.Folder, 0)
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning folder row: %w", err)
		}
		folders = append(folders, *folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating folder rows: %w", err)
	}
	return folders, nil
}

func (f *FolderDB) Update(ctx context.Context, folder *model.Folder) error {
	folder.UpdatedAt = f.now()

	res, err := f.conn.ExecContext(ctx,
		`UPDATE folders SET name = ?, is_private = ?, updated_at = ? WHERE id = ?`,
		folder.Name,
		folder.IsPrivate,
		folder.UpdatedAt,
		folder.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating folder %s: %w", folder.ID, err)
	}
	return affectedOrNotFound(res, "folder", folder.ID)
}

func (f *FolderDB) Delete(ctx context.Context, id string) error {
	res, err := f.conn.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting folder %s: %w", id, err)
	}
	return affectedOrNotFound(res, "folder", id)
}

func (f *FolderDB) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := f.conn.ExecContext(ctx, `DELETE FROM folders WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting folders of %s: %w", ownerID, err)
	}
	return res.RowsAffected()
}
