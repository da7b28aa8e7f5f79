package auth

import "context"

// TestChecker resolves tokens from a fixed map.
type TestChecker struct {
	Sessions map[string]*User
}

func NewTestChecker() *TestChecker {
	return &TestChecker{
		Sessions: map[string]*User{},
	}
}

func (c *TestChecker) CurrentUser(_ context.Context, token string) (*User, error) {
	user, ok := c.Sessions[token]
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return user, nil
}
