package metadata

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// Revalidate drops every cached entry carrying tag. Supported tags are
// menu, toolbar, labels, window[:<id>], datasource[:<entity>] and erp.
// Failures are reported in the result, never as an error.
func (c *Client) Revalidate(ctx context.Context, tag string) domain.RevalidateResult {
	res := domain.RevalidateResult{Tag: tag}
	name, arg, _ := strings.Cut(strings.TrimSpace(tag), ":")

	switch name {
	case domain.TagMenu:
		res.Removed = c.menus.Len()
		c.menus.Clear()
	case domain.TagToolbar:
		res.Removed = c.toolbar.Len()
		c.toolbar.Clear()
	case domain.TagLabels:
		res.Removed = c.labels.Len()
		c.labels.Clear()
	case domain.TagWindow:
		res.Removed = c.dropWindows(arg)
	case domain.TagDatasource, domain.TagERP:
		if c.shared == nil {
			res.Error = "shared cache not configured"
			return res
		}
		prefix := name + ":"
		if arg != "" {
			if name == domain.TagERP || !domain.ValidEntity(arg) {
				res.Error = "invalid tag argument"
				return res
			}
			prefix += arg + ":"
		}
		n, err := c.shared.DelPrefix(ctx, prefix)
		if err != nil {
			c.log.Error("revalidate failed", zap.String("tag", tag), zap.Error(err))
			res.Error = err.Error()
			return res
		}
		res.Removed = n
	default:
		res.Error = "unknown tag"
		return res
	}

	res.Success = true
	c.log.Info("revalidated", zap.String("tag", tag), zap.Int("removed", res.Removed))
	return res
}

// dropWindows removes one window (every role) with its tabs, or all
// windows and tabs when id is empty.
func (c *Client) dropWindows(id string) int {
	if id == "" {
		n := c.windows.Len() + c.tabs.Len()
		c.windows.Clear()
		c.tabs.Clear()
		return n
	}
	prefix := "window-" + id + "-"
	tabIDs := map[string]bool{}
	for _, k := range c.windows.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if w, ok := c.windows.Get(k); ok {
			for _, t := range w.Tabs {
				tabIDs[t.ID] = true
			}
		}
	}
	n := c.windows.DeletePrefix(prefix)
	n += c.tabs.DeleteFunc(func(k string) bool {
		for tid := range tabIDs {
			if strings.HasPrefix(k, "tab-"+tid+"-") {
				return true
			}
		}
		return false
	})
	return n
}
