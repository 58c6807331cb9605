package metadata

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// GetWindow returns the window definition, from cache while fresh.
func (c *Client) GetWindow(ctx context.Context, s domain.Session, windowID string) (domain.WindowMetadata, error) {
	if !domain.ValidID(windowID) {
		return domain.WindowMetadata{}, fmt.Errorf("%w: window id", domain.ErrBadParams)
	}
	s = c.session(s)
	key := domain.CacheKeyWindow(windowID, s.Role(), lang(s))
	if c.windows.Has(key) {
		w, _ := c.windows.Get(key)
		return w, nil
	}
	return c.loadWindow(ctx, s, windowID)
}

// ForceWindowReload bypasses the cache.
func (c *Client) ForceWindowReload(ctx context.Context, s domain.Session, windowID string) (domain.WindowMetadata, error) {
	if !domain.ValidID(windowID) {
		return domain.WindowMetadata{}, fmt.Errorf("%w: window id", domain.ErrBadParams)
	}
	return c.loadWindow(ctx, c.session(s), windowID)
}

func (c *Client) loadWindow(ctx context.Context, s domain.Session, windowID string) (domain.WindowMetadata, error) {
	key := domain.CacheKeyWindow(windowID, s.Role(), lang(s))
	v, err := c.flight(ctx, key, func(ctx context.Context) (any, error) {
		resp, err := c.forSession(s).Post(ctx, "meta/window/"+windowID, nil)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			if resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden {
				return nil, resp.Err("window")
			}
			return nil, fmt.Errorf("%w: window not found", domain.ErrNotFound)
		}
		var w domain.WindowMetadata
		if err := resp.Decode(&w); err != nil {
			return nil, fmt.Errorf("%w: decode window: %v", domain.ErrUpstream, err)
		}
		c.windows.Set(key, w)
		for _, t := range w.Tabs {
			c.tabs.Set(domain.CacheKeyTab(t.ID, s.Role(), lang(s)), t)
		}
		c.log.Debug("window fetched", zap.String("window", windowID), zap.Int("tabs", len(w.Tabs)))
		return w, nil
	})
	if err != nil {
		return domain.WindowMetadata{}, err
	}
	return v.(domain.WindowMetadata), nil
}

// GetCachedWindow never calls the ERP.
func (c *Client) GetCachedWindow(s domain.Session, windowID string) (domain.WindowMetadata, bool) {
	s = c.session(s)
	return c.windows.Get(domain.CacheKeyWindow(windowID, s.Role(), lang(s)))
}

func (c *Client) ClearWindowCache(s domain.Session, windowID string) {
	s = c.session(s)
	c.windows.Delete(domain.CacheKeyWindow(windowID, s.Role(), lang(s)))
}

// GetTab returns a tab definition, from cache while fresh.
func (c *Client) GetTab(ctx context.Context, s domain.Session, tabID string) (domain.Tab, error) {
	if !domain.ValidID(tabID) {
		return domain.Tab{}, fmt.Errorf("%w: tab id", domain.ErrBadParams)
	}
	s = c.session(s)
	key := domain.CacheKeyTab(tabID, s.Role(), lang(s))
	if c.tabs.Has(key) {
		t, _ := c.tabs.Get(key)
		return t, nil
	}
	v, err := c.flight(ctx, key, func(ctx context.Context) (any, error) {
		resp, err := c.forSession(s).Post(ctx, "meta/tab/"+tabID, nil)
		if err != nil {
			return nil, err
		}
		if err := resp.Err("tab"); err != nil {
			return nil, err
		}
		var t domain.Tab
		if err := resp.Decode(&t); err != nil {
			return nil, fmt.Errorf("%w: decode tab: %v", domain.ErrUpstream, err)
		}
		c.tabs.Set(key, t)
		return t, nil
	})
	if err != nil {
		return domain.Tab{}, err
	}
	return v.(domain.Tab), nil
}

// GetColumns returns the cached fields of a tab ordered by field name, or
// an empty slice when the tab was never fetched.
func (c *Client) GetColumns(s domain.Session, tabID string) []domain.Field {
	s = c.session(s)
	t, ok := c.tabs.Get(domain.CacheKeyTab(tabID, s.Role(), lang(s)))
	if !ok {
		return []domain.Field{}
	}
	names := make([]string, 0, len(t.Fields))
	for n := range t.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]domain.Field, 0, len(names))
	for _, n := range names {
		out = append(out, t.Fields[n])
	}
	return out
}

// GetTabsColumns is GetColumns for each tab, keyed by tab id.
func (c *Client) GetTabsColumns(s domain.Session, tabs []domain.Tab) map[string][]domain.Field {
	out := make(map[string][]domain.Field, len(tabs))
	for _, t := range tabs {
		out[t.ID] = c.GetColumns(s, t.ID)
	}
	return out
}

// warmConcurrency bounds parallel window fetches during Warm.
const warmConcurrency = 4

// Warm prefetches windows concurrently and stops at the first failure.
func (c *Client) Warm(ctx context.Context, s domain.Session, windowIDs ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for _, id := range windowIDs {
		g.Go(func() error {
			if _, err := c.GetWindow(gctx, s, id); err != nil {
				return fmt.Errorf("warm window %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

