package linkbin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Directory holds account records. Secrets are bcrypt-hashed on write and
// never stored or compared raw.
type Directory struct {
	users UserRegistry
}

func NewDirectory(users UserRegistry) *Directory {
	return &Directory{users: users}
}

func (d *Directory) Register(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, ErrInvalidAccount
	}
	if len(password) < 8 || len(password) > 72 {
		return User{}, ErrInvalidAccount
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return d.users.Insert(ctx, email, string(hash))
}

// Authenticate succeeds iff one record matches the email and the secret
// matches its hash. Unknown email and wrong password are indistinguishable.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := d.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpdateProfile changes email and/or password. Passing nothing new is
// ErrNoChange; a taken email is ErrDuplicateEmail.
func (d *Directory) UpdateProfile(ctx context.Context, id int64, newEmail, newPassword string) (User, error) {
	current, err := d.users.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	var emailPtr, hashPtr *string
	newEmail = strings.TrimSpace(newEmail)
	if newEmail != "" && newEmail != current.Email {
		if !strings.Contains(newEmail, "@") {
			return User{}, ErrInvalidAccount
		}
		emailPtr = &newEmail
	}
	if newPassword != "" {
		if len(newPassword) < 8 || len(newPassword) > 72 {
			return User{}, ErrInvalidAccount
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		hashPtr = &h
	}
	if emailPtr == nil && hashPtr == nil {
		return User{}, ErrNoChange
	}

	if err := d.users.Update(ctx, id, emailPtr, hashPtr); err != nil {
		return User{}, err
	}
	return d.users.FindByID(ctx, id)
}
