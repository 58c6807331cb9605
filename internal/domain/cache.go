package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache keys, kept in one place. Translated metadata is keyed by role and
// language so concurrent users never see each other's translations.
func CacheKeyMenu(role, lang string) string           { return "OBMenu-" + role + "-" + lang }
func CacheKeyWindow(id, role, lang string) string     { return "window-" + id + "-" + role + "-" + lang }
func CacheKeyTab(id, role, lang string) string        { return "tab-" + id + "-" + role + "-" + lang }
func CacheKeyLabels(lang string) string               { return "labels-" + lang }
func CacheKeyToolbar(lang string) string              { return "toolbar-" + lang }
func CacheKeyTokenJTI(jti string) string              { return "jti:" + jti }
func CacheKeyERPSession(token string) string          { return "erpsession:" + HashKey(token) }
func CacheKeyERP(token, slug, query string) string    { return "erp:" + HashKey(token, slug, query) }
func CacheKeyDatasource(ctxKey, entity string, params []byte) string {
	return "datasource:" + entity + ":" + HashKey(ctxKey, entity, string(params))
}

// HashKey joins parts and hashes them so tokens never appear in keys.
func HashKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Revalidation tags.
const (
	TagMenu       = "menu"
	TagToolbar    = "toolbar"
	TagLabels     = "labels"
	TagWindow     = "window"     // window:<id> or every window
	TagDatasource = "datasource" // datasource:<entity> or every entity
	TagERP        = "erp"
)

// Cache is a byte-oriented k/v store with TTL. Implemented by Redis.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
	DelPrefix(ctx context.Context, prefix string) (int, error)
	Ping(context.Context) error
	Close()
}
