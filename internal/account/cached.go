package account

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"auth-backend/internal/cache"
	"auth-backend/internal/logger"
)

// CachedFinder is a read-through cache in front of another Finder. Only
// successful lookups are stored; misses and failures always reach next.
type CachedFinder struct {
	next  Finder
	cache cache.Client
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedFinder caches next's successful lookups in c for ttl.
func NewCachedFinder(next Finder, c cache.Client, ttl time.Duration) *CachedFinder {
	return &CachedFinder{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   logger.Named("account.cache"),
	}
}

func cacheKey(login string) string {
	return "account:login:" + login
}

func (f *CachedFinder) FindByLogin(ctx context.Context, login string) (Account, error) {
	key := cacheKey(login)
	if raw, err := f.cache.Get(ctx, key); err == nil {
		var a Account
		if err := json.Unmarshal(raw, &a); err == nil {
			return a, nil
		}
		f.log.Warn("dropping undecodable cache entry", zap.String("key", key))
		_ = f.cache.Delete(ctx, key)
	} else if !cache.IsNotFound(err) {
		f.log.Warn("cache read failed", zap.Error(err))
	}

	a, err := f.next.FindByLogin(ctx, login)
	if err != nil {
		return Account{}, err
	}

	if raw, err := json.Marshal(a); err == nil {
		if err := f.cache.Set(ctx, key, raw, f.ttl); err != nil {
			f.log.Warn("cache write failed", zap.Error(err))
		}
	}
	return a, nil
}
