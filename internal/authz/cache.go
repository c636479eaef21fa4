package authz

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"aurum/internal/platform/redis"
	id "aurum/pkg/domain"
)

// CacheTTL bounds how stale a cached registry answer may be. Role checks are
// never cached: a revoked role must take effect on the next call.
const CacheTTL = 30 * time.Second

// Cached is a read-through cache over a remote registry for the two lookups
// that dominate hot-path traffic: member status and blacklist membership.
type Cached struct {
	next  Registry
	redis *redis.Client
	ttl   time.Duration
}

func NewCached(next Registry, client *redis.Client) *Cached {
	return &Cached{next: next, redis: client, ttl: CacheTTL}
}

func (c *Cached) IsInRole(ctx context.Context, addr id.Address, role id.Role) (bool, error) {
	return c.next.IsInRole(ctx, addr, role)
}

func (c *Cached) MemberStatus(ctx context.Context, memberID id.MemberID) (id.MemberStatus, error) {
	key := "authz:member:" + memberID.String()
	if cached, err := c.redis.Get(ctx, key).Result(); err == nil {
		return id.ParseMemberStatus(cached)
	}
	status, err := c.next.MemberStatus(ctx, memberID)
	if err != nil {
		return "", err
	}
	// Cache failures only degrade to a registry round trip.
	_ = c.redis.Set(ctx, key, status.String(), c.ttl).Err()
	return status, nil
}

func (c *Cached) IsBlacklisted(ctx context.Context, addr id.Address) (bool, error) {
	key := "authz:blacklist:" + addr.String()
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		return cached == "1", nil
	}
	if !errors.Is(err, goredis.Nil) {
		// Redis down degrades to a registry round trip, never to a guess.
		return c.next.IsBlacklisted(ctx, addr)
	}
	blacklisted, err := c.next.IsBlacklisted(ctx, addr)
	if err != nil {
		return false, err
	}
	val := "0"
	if blacklisted {
		val = "1"
	}
	_ = c.redis.Set(ctx, key, val, c.ttl).Err()
	return blacklisted, nil
}
