package models

import (
	"strings"
	"time"
)

// UnknownAuthorName is shown when an author cannot be resolved.
const UnknownAuthorName = "Unknown User"

// Author caches the display identity of a user from the external identity
// provider. It is refreshed from token claims on authenticated writes.
type Author struct {
	ID          string    `gorm:"primaryKey;size:255" json:"id"`
	DisplayName string    `gorm:"size:255;not null" json:"displayName"`
	ImageURL    string    `gorm:"size:512" json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AuthorInfo is the author display block attached to posts.
type AuthorInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// UnknownAuthor returns the placeholder for an unresolvable author.
func UnknownAuthor(id string) *AuthorInfo {
	return &AuthorInfo{ID: id, Name: UnknownAuthorName}
}

// Info converts the cached author row into its display block.
func (a *Author) Info() *AuthorInfo {
	if a == nil {
		return nil
	}
	return &AuthorInfo{ID: a.ID, Name: a.DisplayName, ImageURL: a.ImageURL}
}

// Identity is the caller as described by verified token claims.
type Identity struct {
	UserID    string
	FirstName string
	LastName  string
	Name      string
	ImageURL  string
}

// DisplayName returns the trimmed "first last" name, the full name claim,
// or "Anonymous".
func (i Identity) DisplayName() string {
	name := trimJoin(i.FirstName, i.LastName)
	if name == "" {
		name = trimJoin(i.Name)
	}
	if name == "" {
		return "Anonymous"
	}
	return name
}

func trimJoin(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
