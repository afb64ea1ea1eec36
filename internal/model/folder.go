package model

import "time"

// Folder groups links. A folder never stores its links; see Link.FolderIDs.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsPrivate bool      `json:"isPrivate"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *Folder) Owner() string { return f.OwnerID }
func (f *Folder) Private() bool { return f.IsPrivate }
