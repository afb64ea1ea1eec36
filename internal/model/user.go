// Package model defines the data structures used throughout the application.
package model

import "time"

// DefaultBio is the profile bio every new account starts with.
const DefaultBio = "Hey there! I am using liber."

// User represents a registered account.
//
// PasswordHash and IP are tagged `json:"-"` so they can never leave the
// server through encoding/json, whatever projection the repository used.
// List reads leave both empty; the email lookup loads the hash but not the IP.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Handle       string    `json:"handle"    db:"handle"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password"`
	Avatar       string    `json:"avatar"    db:"avatar"` // data URI
	Bio          string    `json:"bio"       db:"bio"`
	IP           string    `json:"-"         db:"ip"` // captured at registration
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Owner reports the user as owning its own record.
func (u *User) Owner() string { return u.ID }

// PublicProfile is the projection served for a handle lookup.
type PublicProfile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}
