package auth

import "context"

var _ Checker = (*SessionChecker)(nil)
var _ Checker = (*TestChecker)(nil)

type Checker interface {
	CurrentUser(ctx context.Context, token string) (*User, error)
}
