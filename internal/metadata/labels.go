package metadata

import (
	"context"
	"fmt"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// GetLabels returns the UI labels for the caller's language.
func (c *Client) GetLabels(ctx context.Context, s domain.Session) (domain.Labels, error) {
	s = c.session(s)
	key := domain.CacheKeyLabels(lang(s))
	if c.labels.Has(key) {
		l, _ := c.labels.Get(key)
		return l, nil
	}
	v, err := c.flight(ctx, key, func(ctx context.Context) (any, error) {
		resp, err := c.forSession(s).Get(ctx, "meta/labels")
		if err != nil {
			return nil, err
		}
		if err := resp.Err("labels"); err != nil {
			return nil, err
		}
		l := domain.Labels{}
		if err := resp.Decode(&l); err != nil {
			return nil, fmt.Errorf("%w: decode labels: %v", domain.ErrUpstream, err)
		}
		c.labels.Set(key, l)
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.Labels), nil
}

type toolbarResponse struct {
	Response struct {
		Data []domain.ToolbarButton `json:"data"`
	} `json:"response"`
}

// GetToolbar serves the cached toolbar only when at least one button
// carries its windows attribute; otherwise the toolbar is fetched again.
func (c *Client) GetToolbar(ctx context.Context, s domain.Session) ([]domain.ToolbarButton, error) {
	s = c.session(s)
	key := domain.CacheKeyToolbar(lang(s))
	if cached, ok := c.toolbar.Get(key); ok {
		for _, b := range cached {
			if b.HasWindows() {
				return cached, nil
			}
		}
	}
	v, err := c.flight(ctx, key, func(ctx context.Context) (any, error) {
		resp, err := c.forSession(s).Post(ctx, "meta/toolbar", nil)
		if err != nil {
			return nil, err
		}
		if err := resp.Err("toolbar"); err != nil {
			return nil, err
		}
		var tr toolbarResponse
		if err := resp.Decode(&tr); err != nil {
			return nil, fmt.Errorf("%w: decode toolbar: %v", domain.ErrUpstream, err)
		}
		if tr.Response.Data == nil {
			tr.Response.Data = []domain.ToolbarButton{}
		}
		c.toolbar.Set(key, tr.Response.Data)
		return tr.Response.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ToolbarButton), nil
}

// ClearToolbarCache drops the toolbar of every language.
func (c *Client) ClearToolbarCache() { c.toolbar.Clear() }
