// Package metadata fetches and caches the window, tab, menu, label and
// toolbar definitions served by the ERP meta servlets.
package metadata

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/etendosoftware/workspace-gateway/internal/cachestore"
	"github.com/etendosoftware/workspace-gateway/internal/domain"
	"github.com/etendosoftware/workspace-gateway/internal/erp"
)

// PersistPrefix namespaces metadata entries in the shared cache. Each
// store adds its kind, e.g. etendo_metadata_window_.
const PersistPrefix = "etendo_metadata_"

type Client struct {
	erp *erp.Client
	log *zap.Logger

	menus   *cachestore.Store[[]domain.Menu]
	windows *cachestore.Store[domain.WindowMetadata]
	tabs    *cachestore.Store[domain.Tab]
	labels  *cachestore.Store[domain.Labels]
	toolbar *cachestore.Store[[]domain.ToolbarButton]

	mu       sync.Mutex
	language string

	group singleflight.Group

	shared   domain.Cache
	entities map[string]bool
	dsTTL    time.Duration
}

type Option func(*settings)

type settings struct {
	log       *zap.Logger
	storeOpts []cachestore.Option
	shared    domain.Cache
	entities  map[string]bool
	dsTTL     time.Duration
}

func WithLogger(l *zap.Logger) Option { return func(s *settings) { s.log = l } }

// WithStoreOptions is passed to every metadata store.
func WithStoreOptions(opts ...cachestore.Option) Option {
	return func(s *settings) { s.storeOpts = append(s.storeOpts, opts...) }
}

// WithSharedCache enables the datasource response cache and lets
// revalidation reach entries kept outside the process.
func WithSharedCache(c domain.Cache) Option { return func(s *settings) { s.shared = c } }

// WithDatasourceCaching lists the entities whose datasource responses may
// be cached for ttl.
func WithDatasourceCaching(entities map[string]bool, ttl time.Duration) Option {
	return func(s *settings) {
		s.entities = entities
		s.dsTTL = ttl
	}
}

// New returns a client whose entries stay fresh for duration.
func New(ec *erp.Client, duration time.Duration, opts ...Option) *Client {
	st := settings{log: zap.NewNop()}
	for _, o := range opts {
		o(&st)
	}
	// one prefix per store, so clearing one kind never reaches another
	so := func(kind string) []cachestore.Option {
		return append([]cachestore.Option{cachestore.WithPrefix(PersistPrefix + kind + "_")}, st.storeOpts...)
	}
	return &Client{
		erp:      ec,
		log:      st.log,
		menus:    cachestore.New[[]domain.Menu](duration, so("menu")...),
		windows:  cachestore.New[domain.WindowMetadata](duration, so("window")...),
		tabs:     cachestore.New[domain.Tab](duration, so("tab")...),
		labels:   cachestore.New[domain.Labels](duration, so("labels")...),
		toolbar:  cachestore.New[[]domain.ToolbarButton](duration, so("toolbar")...),
		shared:   st.shared,
		entities: st.entities,
		dsTTL:    st.dsTTL,
	}
}

// SetLanguage sets the language used for callers that send none. Entries
// are keyed by language, so a change only drops the cache as a hint that
// the previous translations are unlikely to be asked for again. It reports
// whether it did.
func (c *Client) SetLanguage(lang string) bool {
	if lang == "" {
		return false
	}
	c.mu.Lock()
	prev := c.language
	c.language = lang
	c.mu.Unlock()
	if prev == lang || prev == "" {
		return false
	}
	c.clearAll()
	c.log.Info("default language changed, metadata cache cleared", zap.String("from", prev), zap.String("to", lang))
	return true
}

// Language is the default language, empty until SetLanguage is called.
func (c *Client) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

func (c *Client) clearAll() {
	c.menus.Clear()
	c.windows.Clear()
	c.tabs.Clear()
	c.labels.Clear()
	c.toolbar.Clear()
}

// session fills in the default language for callers that sent none.
func (c *Client) session(s domain.Session) domain.Session {
	if s.Language == "" {
		s.Language = c.Language()
	}
	return s
}

// lang is the cache key component for the caller's language.
func lang(s domain.Session) string {
	if s.Language == "" {
		return "default"
	}
	return s.Language
}

func (c *Client) forSession(s domain.Session) *erp.Client {
	return c.erp.ForSession(s)
}

// flightTimeout bounds a shared fetch once it no longer follows the
// context of the caller that started it.
const flightTimeout = 60 * time.Second

// flight collapses concurrent fetches of key. The fetch runs detached from
// the starting caller's cancellation; every caller still stops waiting
// when its own context ends.
func (c *Client) flight(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
