package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type SessionChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	users       map[string]User
}

func NewSessionChecker(accounts []Account, ttl time.Duration, redisClient *redis.Client) *SessionChecker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	users := make(map[string]User, len(accounts))
	for _, a := range accounts {
		users[a.UID] = a.User
	}
	return &SessionChecker{
		ttl:         ttl,
		redisClient: redisClient,
		users:       users,
	}
}

// CurrentUser resolves the token to the signed-in user, ErrNotLoggedIn when the
// session is missing, expired or belongs to an unknown user.
func (c *SessionChecker) CurrentUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	s, err := getSession(ctx, c.redisClient, token)
	if err != nil {
		return nil, err
	}

	if time.Since(time.Unix(s.CreatedAt, 0)) > c.ttl {
		return nil, ErrNotLoggedIn
	}

	user, ok := c.users[s.UID]
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return &user, nil
}
