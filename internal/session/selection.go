package session

import (
	"fmt"
	"time"

	"github.com/etendosoftware/workspace-gateway/internal/cachestore"
	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// Selections holds the selected tab and records of the one window a caller
// has open. Storing a selection for another window replaces the previous
// one.
type Selections struct {
	store *cachestore.Store[domain.Selection]
	now   func() time.Time
}

// NewSelections keeps selections for ttl; stale ones read as absent.
func NewSelections(ttl time.Duration, opts ...cachestore.Option) *Selections {
	return &Selections{store: cachestore.New[domain.Selection](ttl, opts...), now: time.Now}
}

// Put replaces the caller's selection.
func (s *Selections) Put(token string, sel domain.Selection) (domain.Selection, error) {
	if !domain.ValidID(sel.WindowID) {
		return domain.Selection{}, fmt.Errorf("%w: windowId", domain.ErrBadParams)
	}
	if sel.TabID != "" && !domain.ValidID(sel.TabID) {
		return domain.Selection{}, fmt.Errorf("%w: tabId", domain.ErrBadParams)
	}
	for tab := range sel.RecordIDs {
		if !domain.ValidID(tab) {
			return domain.Selection{}, fmt.Errorf("%w: records key %q", domain.ErrBadParams, tab)
		}
	}
	sel.UpdatedAt = s.now().UTC()
	s.store.Set(key(token), sel)
	return sel, nil
}

// Get returns the selection for windowID, or ErrNotFound when the caller
// has nothing selected there.
func (s *Selections) Get(token, windowID string) (domain.Selection, error) {
	k := key(token)
	if !s.store.Has(k) {
		return domain.Selection{}, domain.ErrNotFound
	}
	sel, _ := s.store.Get(k)
	if sel.WindowID != windowID {
		return domain.Selection{}, domain.ErrNotFound
	}
	return sel, nil
}

func (s *Selections) Clear(token string) { s.store.Delete(key(token)) }
