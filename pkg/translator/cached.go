package translator

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic cache key
	"encoding/hex"

	"github.com/samvad-hq/samvad-feed-translator/internal/logger"
	"github.com/samvad-hq/samvad-feed-translator/internal/storage"
)

// Cached serves repeated (source, target, text) translations from a Store.
// Cache failures never fail a translation; they are logged and the API is used.
type Cached struct {
	next   Translator
	store  storage.Store
	source string
	log    logger.Logger
}

// NewCached wraps next with store. A nil store disables caching.
func NewCached(next Translator, store storage.Store, source string, log logger.Logger) *Cached {
	return &Cached{next: next, store: store, source: source, log: logger.Ensure(log)}
}

func (c *Cached) Translate(ctx context.Context, text, target string) (string, error) {
	if c.store == nil {
		return c.next.Translate(ctx, text, target)
	}

	key := cacheKey(c.source, target, text)
	if cached, ok, err := c.store.Lookup(key); err != nil {
		c.log.WarnObj("translation cache lookup failed", "cache_error", map[string]any{
			"error": err.Error(),
		})
	} else if ok {
		return cached, nil
	}

	out, err := c.next.Translate(ctx, text, target)
	if err != nil {
		return "", err
	}
	if err := c.store.Remember(key, out); err != nil {
		c.log.WarnObj("translation cache write failed", "cache_error", map[string]any{
			"error": err.Error(),
		})
	}
	return out, nil
}

func cacheKey(source, target, text string) string {
	h := sha1.New() //nolint:gosec // non-cryptographic cache key
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
