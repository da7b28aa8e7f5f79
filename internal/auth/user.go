package auth

import (
	"context"
	"errors"
)

var (
	ErrWrongCredentials = errors.New("wrong credentials")
	ErrNotLoggedIn      = errors.New("not logged in")
)

type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

// Account is a user allowed to sign in, with the bcrypt hash of their password.
type Account struct {
	User
	PasswordHash string
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userCtxKey struct{}

func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*User)
	return user, ok && user != nil
}

// UserIDFromContext returns the uid of the signed-in user, empty if there is none.
func UserIDFromContext(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.UID
	}
	return ""
}
