// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID              string    `db:"id"`
	Email           string    `db:"email"`
	PasswordHash    string    `db:"password_hash"`
	Name            string    `db:"name"`
	Role            string    `db:"role"`
	ProfileImageURL *string   `db:"profile_image_url"`
	ProfileImageKey *string   `db:"profile_image_key"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultProfileImage is shown for authors without an uploaded photo.
const DefaultProfileImage = "/placeholder.svg?height=32&width=32"

// Author is the public display subset embedded in article and comment
// reads.
type Author struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profileImageUrl"`
}

func (u *User) AsAuthor() Author {
	img := DefaultProfileImage
	if u.ProfileImageURL != nil && *u.ProfileImageURL != "" {
		img = *u.ProfileImageURL
	}
	return Author{ID: u.ID, Name: u.Name, ProfileImageURL: img}
}
