package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/idkeep/userstore/internal/core/domain"
	"github.com/idkeep/userstore/internal/core/ports"
)

const cacheTTL = 5 * time.Minute

// LookupCache decorates a UserBackend with a TTL-bounded read-through
// cache of GetUser lookups. Entries are stored under the user's id,
// email, and username keys and dropped on PutUser and DeleteUser. Cache
// failures are logged and fall through to the backend, never to the
// caller.
//
// A stale email or username key can outlive a rename until its TTL
// expires; invalidation only covers the fields on the written user.
type LookupCache struct {
	ports.UserBackend
	client *redis.Client
	log    zerolog.Logger
}

// NewLookupCache wraps the backend with the given Redis client.
func NewLookupCache(backend ports.UserBackend, client *redis.Client, log zerolog.Logger) *LookupCache {
	return &LookupCache{UserBackend: backend, client: client, log: log}
}

func idKey(id int64) string    { return fmt.Sprintf("user:id:%d", id) }
func emailKey(s string) string { return "user:email:" + s }
func nameKey(s string) string  { return "user:username:" + s }

// GetUser serves the tiered lookup from cache when possible, falling
// back to the backend and priming the cache on a hit.
func (c *LookupCache) GetUser(ctx context.Context, ident domain.Ident) (*domain.User, error) {
	if user := c.cached(ctx, ident); user != nil {
		return user, nil
	}

	user, err := c.UserBackend.GetUser(ctx, ident)
	if err != nil || user == nil {
		return user, err
	}
	c.prime(ctx, user)
	return user, nil
}

func (c *LookupCache) cached(ctx context.Context, ident domain.Ident) *domain.User {
	keys := make([]string, 0, 2)
	if id, ok := ident.ID(); ok {
		keys = append(keys, idKey(id))
	} else {
		text, _ := ident.Text()
		keys = append(keys, emailKey(text), nameKey(text))
	}

	for _, key := range keys {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			if err != redis.Nil {
				c.log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
			}
			continue
		}
		var user domain.User
		if err := json.Unmarshal(raw, &user); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("user cache entry corrupt")
			continue
		}
		return &user
	}
	return nil
}

func (c *LookupCache) prime(ctx context.Context, user *domain.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	for _, key := range c.keysFor(user) {
		if err := c.client.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("user cache write failed")
		}
	}
}

func (c *LookupCache) keysFor(user *domain.User) []string {
	keys := []string{idKey(user.ID)}
	if user.Email != "" {
		keys = append(keys, emailKey(user.Email))
	}
	if user.Username != "" {
		keys = append(keys, nameKey(user.Username))
	}
	return keys
}

// PutUser writes through to the backend and drops the user's cache keys.
func (c *LookupCache) PutUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved, err := c.UserBackend.PutUser(ctx, user)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, saved)
	return saved, nil
}

// DeleteUser removes the user from the backend and drops its cache keys.
func (c *LookupCache) DeleteUser(ctx context.Context, user *domain.User) error {
	if err := c.UserBackend.DeleteUser(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx, user)
	return nil
}

func (c *LookupCache) invalidate(ctx context.Context, user *domain.User) {
	if err := c.client.Del(ctx, c.keysFor(user)...).Err(); err != nil {
		c.log.Warn().Err(err).Int64("user_id", user.ID).Msg("user cache invalidation failed")
	}
}
