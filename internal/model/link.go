package model

import (
	"slices"
	"time"
)

// Link represents a saved bookmark.
//
// FolderIDs is a set: each folder id appears at most once. Membership lives
// only here; there is no separate join table.
type Link struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	URL       string    `json:"url"`
	IsPrivate bool      `json:"isPrivate"`
	OwnerID   string    `json:"ownerId"`
	FolderIDs []string  `json:"folderIds"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *Link) Owner() string { return l.OwnerID }
func (l *Link) Private() bool { return l.IsPrivate }

// WithFolder returns the folder set with folderID moved to the end, dropping
// any existing occurrence first. Calling it twice yields one occurrence.
func (l *Link) WithFolder(folderID string) []string {
	ids := l.WithoutFolder(folderID)
	return append(ids, folderID)
}

// WithoutFolder returns the folder set minus every entry equal to folderID.
// The receiver's slice is never modified.
func (l *Link) WithoutFolder(folderID string) []string {
	ids := make([]string, 0, len(l.FolderIDs)+1)
	for _, id := range l.FolderIDs {
		if id != folderID {
			ids = append(ids, id)
		}
	}
	return ids
}

// InFolder reports whether the link is a member of folderID.
func (l *Link) InFolder(folderID string) bool {
	return slices.Contains(l.FolderIDs, folderID)
}
