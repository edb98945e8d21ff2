// Package models contains data models for the user service.
package models

import "time"

// Preferences holds notification channel opt-ins.
type Preferences struct {
	Email bool `json:"email" gorm:"column:email;not null"`
	Push  bool `json:"push" gorm:"column:push;not null"`
}

// User represents a stored user account including its credential.
type User struct {
	ID           string      `json:"id" gorm:"primaryKey;type:uuid"`
	Email        string      `json:"email" gorm:"uniqueIndex:users_email_key;not null"`
	Name         string      `json:"name" gorm:"not null"`
	PasswordHash string      `json:"-" gorm:"not null"`
	PushToken    *string     `json:"push_token,omitempty" gorm:"size:500"`
	Preferences  Preferences `json:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// PublicUser is the only user representation returned to callers.
// It has no credential field.
type PublicUser struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	PushToken   *string     `json:"push_token,omitempty"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ToPublic projects the user onto its public representation.
func (u *User) ToPublic() PublicUser {
	var pushToken *string
	if u.PushToken != nil {
		token := *u.PushToken
		pushToken = &token
	}
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PushToken:   pushToken,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// ToPublicList projects a slice of users.
func ToPublicList(users []User) []PublicUser {
	out := make([]PublicUser, len(users))
	for i := range users {
		out[i] = users[i].ToPublic()
	}
	return out
}
