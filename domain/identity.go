package domain

import (
	"context"
	"time"
)

// Identity is an authenticated caller
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// User is the stored account behind an Identity
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity strips credentials from the account
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserStore persists accounts. CreateUser fails with DuplicateEmailError when the
// email is taken; FindUserByEmail fails with NotFoundError when it is unknown.
type UserStore interface {
	CreateUser(ctx context.Context, user User) error
	FindUserByEmail(ctx context.Context, email string) (User, error)
}
