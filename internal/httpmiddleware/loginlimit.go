package httpmiddleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed login attempts per account in Redis and locks
// the account out once the threshold is crossed. This is an advisory
// collaborator around authentication, not part of the voting invariants:
// if Redis is unreachable the limiter fails open.
type LoginLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

// NewLoginLimiter creates a limiter allowing max failures per window.
func NewLoginLimiter(rdb *redis.Client, max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, max: max, window: window}
}

func (l *LoginLimiter) key(account string) string {
	return "login:failures:" + account
}

// Blocked reports whether the account is currently locked out.
func (l *LoginLimiter) Blocked(ctx context.Context, account string) bool {
	if l == nil || l.rdb == nil {
		return false
	}
	n, err := l.rdb.Get(ctx, l.key(account)).Int()
	if err != nil {
		return false
	}
	return n >= l.max
}

// RecordFailure counts one failed attempt.
func (l *LoginLimiter) RecordFailure(ctx context.Context, account string) {
	if l == nil || l.rdb == nil {
		return
	}
	key := l.key(account)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if n == 1 {
		l.rdb.Expire(ctx, key, l.window)
	}
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, account string) {
	if l == nil || l.rdb == nil {
		return
	}
	l.rdb.Del(ctx, l.key(account))
}
