package notify

import (
	"context"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LanguageSource resolves a language id to its stored name; the booking
// repository implements it.
type LanguageSource interface {
	LanguageName(ctx context.Context, id int64) (string, error)
}

// LanguageCache memoizes language names; notification texts look the
// booking's language up on every send and the table never changes at
// runtime.
type LanguageCache struct {
	source LanguageSource
	cache  *gocache.Cache
}

func NewLanguageCache(source LanguageSource) *LanguageCache {
	return &LanguageCache{
		source: source,
		cache:  gocache.New(time.Hour, 2*time.Hour),
	}
}

// Name returns the language name, or "" when the lookup fails; push and
// SMS texts degrade rather than block on a missing name.
func (c *LanguageCache) Name(ctx context.Context, languageID int64) string {
	key := strconv.FormatInt(languageID, 10)
	if v, ok := c.cache.Get(key); ok {
		return v.(string)
	}
	name, err := c.source.LanguageName(ctx, languageID)
	if err != nil {
		return ""
	}
	c.cache.Set(key, name, gocache.DefaultExpiration)
	return name
}
