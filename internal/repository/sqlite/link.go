package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/chankruze/liber/internal/apperror"
	"github.com/chankruze/liber/internal/model"
	"github.com/chankruze/liber/internal/repository"
)

var _ repository.LinkRepository = (*LinkDB)(nil)

// LinkDB is the links table. A link's folder set is stored as a JSON array
// in folder_ids and queried with SQLite's json_each.
type LinkDB struct {
	*DB
}

const linkColumns = `id, label, url, is_private, owner_id, folder_ids, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLink(s scanner) (*model.Link, error) {
	var (
		link    model.Link
		folders string
	)
	if err := s.Scan(
		&link.ID,
		&link.Label,
		&link.URL,
		&link.IsPrivate,
		&link.OwnerID,
		&folders,
		&link.CreatedAt,
		&link.UpdatedAt,
	); err != nil {
		return nil, err
	}

	link.FolderIDs = make([]string, 0)
	if err := json.Unmarshal([]byte(folders), &link.FolderIDs); err != nil {
		return nil, fmt.Errorf("decoding folder_ids of link %s: %w", link.ID, err)
	}
	return &link, nil
}

func encodeFolderIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encoding folder_ids: %w", err)
	}
	return string(b), nil
}

// Create inserts a link, assigning its ID and timestamps.
func (l *LinkDB) Create(ctx context.Context, link *model.Link) error {
	now := l.now()
	link.ID = xid.New().String()
	link.CreatedAt = now
	link.UpdatedAt = now
	if link.FolderIDs == nil {
		link.FolderIDs = []string{}
	}

	folders, err := encodeFolderIDs(link.FolderIDs)
	if err != nil {
		return fmt.Errorf("sqlite: creating link: %w", err)
	}

	res, err := l.conn.ExecContext(ctx,
		`INSERT INTO links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.Label,
		link.URL,
		link.IsPrivate,
		link.OwnerID,
		folders,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating link: %w", err)
	}

	return acknowledged(res)
}

func (l *LinkDB) GetByID(ctx context.Context, id string) (*model.Link, error) {
	link, err := scanLink(l.conn.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("link", id)
		}
		return nil, fmt.Errorf("sqlite: getting link %s: %w", id, err)
	}
	return link, nil
}

// ListVisible returns every public link plus callerID's private ones.
func (l *LinkDB) ListVisible(ctx context.Context, callerID string, opts repository.ListOptions) ([]model.Link, error) {
	limit, offset := limitOffset(opts)
	return l.query(ctx, "listing links",
		`SELECT `+linkColumns+` FROM links
		 WHERE is_private = 0 OR owner_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		callerID, limit, offset,
	)
}

func (l *LinkDB) ListPublicByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	return l.query(ctx, "listing public links",
		`SELECT `+linkColumns+` FROM links
		 WHERE owner_id = ? AND is_private = 0
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
}

// ListInFolder returns the links whose folder set contains folderID.
func (l *LinkDB) ListInFolder(ctx context.Context, folderID string, includePrivate bool) ([]model.Link, error) {
	return l.query(ctx, "listing links in folder",
		`SELECT `+linkColumns+` FROM links
		 WHERE EXISTS (SELECT 1 FROM json_each(links.folder_ids) WHERE json_each.value = ?)
		   AND (? OR is_private = 0)
		 ORDER BY created_at DESC, id DESC`,
		folderID, includePrivate,
	)
}

func (l *LinkDB) query(ctx context.Context, op, q string, args ...any) ([]model.Link, error) {
	rows, err := l.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	links := make([]model.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning link row: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating link rows: %w", err)
	}
	return links, nil
}

// Update writes the mutable columns (owner is immutable) and refreshes
// UpdatedAt.
func (l *LinkDB) Update(ctx context.Context, link *model.Link) error {
	folders, err := encodeFolderIDs(link.FolderIDs)
	if err != nil {
		return fmt.Errorf("sqlite: updating link %s: %w", link.ID, err)
	}
	link.UpdatedAt = l.now()

	res, err := l.conn.ExecContext(ctx,
		`UPDATE links
		 SET label = ?, url = ?, is_private = ?, folder_ids = ?, updated_at = ?
		 WHERE id = ?`,
		link.Label,
		link.URL,
		link.IsPrivate,
		folders,
		link.UpdatedAt,
		link.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating link %s: %w", link.ID, err)
	}
	return affectedOrNotFound(res, "link", link.ID)
}

func (l *LinkDB) Delete(ctx context.Context, id string) error {
	res, err := l.conn.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting link %s: %w", id, err)
	}
	return affectedOrNotFound(res, "link", id)
}

// DetachFolder rewrites folder_ids without folderID on every link that
// contains it.
func (l *LinkDB) DetachFolder(ctx context.Context, folderID string) (int64, error) {
	res, err := l.conn.ExecContext(ctx,
		`UPDATE links
		 SET folder_ids = (
		       SELECT COALESCE(json_group_array(value), '[]')
		       FROM json_each(links.folder_ids)
		       WHERE value != ?
		     ),
		     updated_at = ?
		 WHERE EXISTS (SELECT 1 FROM json_each(links.folder_ids) WHERE json_each.value = ?)`,
		folderID, l.now(), folderID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: detaching folder %s: %w", folderID, err)
	}
	return res.RowsAffected()
}

func (l *LinkDB) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := l.conn.ExecContext(ctx, `DELETE FROM links WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting links of %s: %w", ownerID, err)
	}
	return res.RowsAffected()
}
