package model

// Owned is implemented by every record with a single owning user.
type Owned interface {
	Owner() string
}

// Visible is an Owned record that can be hidden from non-owners.
type Visible interface {
	Owned
	Private() bool
}

// CanView reports whether callerID may observe record: owners always can,
// everyone else only when the record is public. An empty callerID is an
// anonymous request.
func CanView(record Visible, callerID string) bool {
	if !record.Private() {
		return true
	}
	return callerID != "" && record.Owner() == callerID
}

// TokenPair is returned by register, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Created is the acknowledgement body for a successful insert.
type Created struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}
