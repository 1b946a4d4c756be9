package model

import "time"

// PendingCode is an outstanding one-time verification code and the instant
// after which it no longer verifies. Code and ExpiresAt always travel
// together.
type PendingCode struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is past its expiry at now. The expiry
// instant itself is still valid.
func (p PendingCode) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// User represents an account record as stored in the `users` table.
// Handlers never serialize it directly; use Public for responses.
//
// Fields:
//  ID              – opaque identifier (UUID), assigned at creation.
//  FullName        – display name.
//  Email           – unique, lower-cased identity key.
//  PasswordHash    – bcrypt hash of the password.
//  Phone           – contact number.
//  Avatar          – optional avatar URL.
//  School, Course  – optional profile fields.
//  ProfileCompleted – set by the profile screens.
//  Verified        – whether the email address has been confirmed.
//  Pending         – outstanding verification code, nil once verified.
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type User struct {
	ID               string
	FullName         string
	Email            string
	PasswordHash     string
	Phone            string
	Avatar           string
	School           string
	Course           string
	ProfileCompleted bool
	Verified         bool
	Pending          *PendingCode
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// WithPendingCode returns a copy of u carrying a fresh verification code.
// Any previous code is replaced.
func (u User) WithPendingCode(code string, expiresAt time.Time) User {
	u.Pending = &PendingCode{Code: code, ExpiresAt: expiresAt}
	return u
}

// MarkVerified returns a copy of u with the verified flag set and the
// pending code cleared.
func (u User) MarkVerified() User {
	u.Verified = true
	u.Pending = nil
	return u
}

// ProfileUpdate carries the optional fields of PUT /me. Empty strings are
// left untouched.
type ProfileUpdate struct {
	FullName string
	School   string
	Course   string
}

// Apply returns a copy of u with the non-empty fields of p applied.
func (u User) Apply(p ProfileUpdate) User {
	if p.FullName != "" {
		u.FullName = p.FullName
	}
	if p.School != "" {
		u.School = p.School
	}
	if p.Course != "" {
		u.Course = p.Course
	}
	return u
}

// AuthUser is the identity projection returned alongside a session token.
type AuthUser struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	IsVerified bool   `json:"isVerified"`
}

// Auth projects u for login and verification responses.
func (u User) Auth() AuthUser {
	return AuthUser{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Phone:      u.Phone,
		IsVerified: u.Verified,
	}
}

// PublicUser is the profile representation served by /me. It never carries
// the password hash or the pending verification code.
type PublicUser struct {
	ID               string    `json:"id"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Avatar           *string   `json:"avatar"`
	School           *string   `json:"school"`
	Course           *string   `json:"course"`
	ProfileCompleted bool      `json:"profileCompleted"`
	IsVerified       bool      `json:"isVerified"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Public projects u for profile responses. Unset optional fields render as null.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		FullName:         u.FullName,
		Email:            u.Email,
		Phone:            u.Phone,
		Avatar:           nullable(u.Avatar),
		School:           nullable(u.School),
		Course:           nullable(u.Course),
		ProfileCompleted: u.ProfileCompleted,
		IsVerified:       u.Verified,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
