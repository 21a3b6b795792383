package model

import (
	"regexp"

	baseModel "klaus/pkg/model"
)

// SystemUserID is the identity of the built-in assistant. It is pinned
// at the top of the directory and never stored in the users table.
const SystemUserID = "klaus-ai"

// User statuses.
const (
	StatusNormal  = 1
	StatusDeleted = 2
)

// Presence values a member can broadcast.
const (
	PresenceOnline  = "online"
	PresenceBusy    = "busy"
	PresenceOffline = "offline"
)

// ValidPresence reports whether p is one of the known presence values.
func ValidPresence(p string) bool {
	return p == PresenceOnline || p == PresenceBusy || p == PresenceOffline
}

// User is a registered account with its public profile.
type User struct {
	baseModel.BaseModel
	Handle       string `gorm:"uniqueIndex;size:16" json:"handle"`
	DisplayName  string `gorm:"size:64" json:"displayName"`
	Email        string `gorm:"uniqueIndex;size:128" json:"email"`
	PasswordHash string `gorm:"size:128" json:"-"`
	AvatarURL    string `gorm:"size:512" json:"avatarUrl"`
	Bio          string `gorm:"size:512" json:"bio"`
	ThemeSongURL string `gorm:"size:512" json:"themeSongUrl"`
	Presence     string `gorm:"size:16;default:offline" json:"presence"`
	SearchName   string `gorm:"index;size:64" json:"-"`
	Status       int    `gorm:"default:1" json:"status"`
}

// Profile is the public view of a user, safe to return to other members.
type Profile struct {
	ID           string `json:"id"`
	Handle       string `json:"handle"`
	DisplayName  string `json:"displayName"`
	AvatarURL    string `json:"avatarUrl"`
	Bio          string `json:"bio"`
	ThemeSongURL string `json:"themeSongUrl,omitempty"`
	Presence     string `json:"presence,omitempty"`
	IsSystem     bool   `json:"isSystem,omitempty"`
}

// ToProfile strips private fields.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:           u.ID,
		Handle:       u.Handle,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.AvatarURL,
		Bio:          u.Bio,
		ThemeSongURL: u.ThemeSongURL,
		Presence:     u.Presence,
	}
}

// SystemProfile returns the built-in assistant profile.
func SystemProfile() Profile {
	return Profile{
		ID:          SystemUserID,
		Handle:      "@klaus",
		DisplayName: "Klaus",
		Bio:         "Your resident assistant.",
		Presence:    PresenceOnline,
		IsSystem:    true,
	}
}

var handlePattern = regexp.MustCompile(`^@[a-z0-9_]{3,15}$`)

// ValidHandle reports whether h satisfies the handle format:
// leading @, then 3 to 15 of lowercase letters, digits or underscore.
func ValidHandle(h string) bool {
	return handlePattern.MatchString(h)
}
