package metadata

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

type menuResponse struct {
	Menu []domain.Menu `json:"menu"`
}

// GetMenu returns the menu of the caller's role. A fresh, non-empty cached
// menu is served unless force is set.
func (c *Client) GetMenu(ctx context.Context, s domain.Session, force bool) ([]domain.Menu, error) {
	s = c.session(s)
	key := domain.CacheKeyMenu(s.Role(), lang(s))
	if !force && c.menus.Has(key) {
		if m, _ := c.menus.Get(key); len(m) > 0 {
			return m, nil
		}
	}
	v, err := c.flight(ctx, key, func(ctx context.Context) (any, error) {
		return c.fetchMenu(ctx, s, key)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Menu), nil
}

func (c *Client) fetchMenu(ctx context.Context, s domain.Session, key string) ([]domain.Menu, error) {
	var role any
	if s.Role() != "default" {
		role = s.Role()
	}
	resp, err := c.forSession(s).Post(ctx, "meta/menu", map[string]any{"role": role})
	if err != nil {
		return nil, err
	}
	if err := resp.Err("menu"); err != nil {
		return nil, err
	}
	var mr menuResponse
	if err := resp.Decode(&mr); err != nil {
		return nil, fmt.Errorf("%w: decode menu: %v", domain.ErrUpstream, err)
	}
	if mr.Menu == nil {
		mr.Menu = []domain.Menu{}
	}
	c.menus.Set(key, mr.Menu)
	c.log.Debug("menu fetched", zap.String("role", s.Role()), zap.String("language", lang(s)), zap.Int("items", len(mr.Menu)))
	return mr.Menu, nil
}

// GetCachedMenu never calls the ERP; it returns the last menu fetched for
// the role and language or an empty slice.
func (c *Client) GetCachedMenu(s domain.Session) []domain.Menu {
	s = c.session(s)
	if m, ok := c.menus.Get(domain.CacheKeyMenu(s.Role(), lang(s))); ok && m != nil {
		return m
	}
	return []domain.Menu{}
}

func (c *Client) ClearMenuCache(s domain.Session) {
	s = c.session(s)
	c.menus.Delete(domain.CacheKeyMenu(s.Role(), lang(s)))
}

// RefreshMenuOnLogin drops the role's menu and fetches it again.
func (c *Client) RefreshMenuOnLogin(ctx context.Context, s domain.Session) ([]domain.Menu, error) {
	c.ClearMenuCache(s)
	return c.GetMenu(ctx, s, true)
}
