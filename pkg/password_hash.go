package pkg

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const PasswordHashCost = 14

var ErrEmptyPassword = errors.New("password empty")

// HashPassword returns the bcrypt hash stored as password_hash of a configured user.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", err
	}
	return BytesToString(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
