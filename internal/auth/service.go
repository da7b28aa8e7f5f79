package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "gymplan-session||"
	tokensSetKey     = "gymplan-sessions"
	tokenLength      = 35
)

type session struct {
	UID       string `json:"uid"`
	CreatedAt int64  `json:"createdAt"`
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func getSession(ctx context.Context, rdb *redis.Client, token string) (*session, error) {
	raw, err := rdb.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	var s session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	accounts    map[string]Account
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewAuthService(
	accounts []Account,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	byEmail := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byEmail[strings.ToLower(a.Email)] = a
	}
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		accounts:       byEmail,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// SignIn checks the credentials and opens a session created at createdAt.
func (as *Service) SignIn(ctx context.Context, credentials Credentials, createdAt time.Time) (_ string, _ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.sign_in")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	account, ok := as.accounts[strings.ToLower(credentials.Email)]
	if !ok || !pkg.CheckPasswordHash(credentials.Password, account.PasswordHash) {
		return "", nil, ErrWrongCredentials
	}

	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", nil, err
	}

	value, err := json.Marshal(session{UID: account.UID, CreatedAt: createdAt.Unix()})
	if err != nil {
		return "", nil, err
	}

	if err := as.redisClient.Set(ctx, sessionKey(token), string(value), as.ttl).Err(); err != nil {
		return "", nil, err
	}

	// add token to list of sessions
	if err := as.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", nil, err
	}

	user := account.User
	return token, &user, nil
}

// SignOut ends the session. Returns false if there was no such session.
func (as *Service) SignOut(ctx context.Context, token string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.sign_out")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := getSession(ctx, as.redisClient, token); err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return false, nil
		}
		return false, err
	}

	if err := as.redisClient.Del(ctx, sessionKey(token)).Err(); err != nil {
		return false, err
	}

	// remove token from the list of sessions
	if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	return true, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	sessionTokens, err := as.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		log.Debugln("auth service, scan and clean abort, no sessions")
		return
	}

	log.Infof("auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		s, err := getSession(ctx, as.redisClient, token)
		if errors.Is(err, ErrNotLoggedIn) {
			// expired by redis already, only the index entry is left
			toRemove = append(toRemove, token)
			continue
		}
		if err != nil {
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(time.Unix(s.CreatedAt, 0)) > as.ttl {
			log.Debugf("auth service, will clean the session with token: %s", token)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := as.redisClient.Del(ctx, sessionKey(token)).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
			continue
		}

		// remove token from the list of sessions
		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
			continue
		}
	}
}
