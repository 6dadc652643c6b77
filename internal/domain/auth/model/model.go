package model

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	StatusPending UserStatus = "pending"
	StatusActive  UserStatus = "active"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID           uuid.UUID `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex"`
	PasswordHash string    // empty for federated-only accounts
	Firstname    string
	Lastname     string
	Status       UserStatus
	RoleID       uuid.UUID
	AccountID    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Account struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	Name      string
	OwnerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role struct {
	ID   uuid.UUID `gorm:"primaryKey"`
	Name string    `gorm:"uniqueIndex"`
}

type Invitation struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	AccountID uuid.UUID `gorm:"index"`
	Email     string
	Role      string
	CreatedAt time.Time
}

// TokenRecord is a persisted single-use token (password reset or invitation).
// Subject is the user id for reset tokens and the invitation id for invite
// tokens; at most one live record exists per subject.
type TokenRecord struct {
	Token     string    `gorm:"primaryKey"`
	Subject   uuid.UUID `gorm:"uniqueIndex"`
	Kind      TokenKind
	ExpiresAt time.Time
}

type TokenKind string

const (
	TokenKindReset  TokenKind = "reset"
	TokenKindInvite TokenKind = "invite"
)

// RefreshToken carries the signed token together with a materialized expiry,
// which the boundary uses for the cookie lifetime.
type RefreshToken struct {
	Token     string
	ExpiresAt time.Time
}

type TokenPair struct {
	AccessToken  string
	RefreshToken RefreshToken
	UserID       uuid.UUID
}

// Auth is the result of a successful sign-in or sign-up.
type Auth struct {
	Tokens TokenPair
	User   User
}

type Invitee struct {
	Email string
	Role  string
}

type InvitationLink struct {
	Email string
	Link  string
}
