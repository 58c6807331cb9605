// Package recent keeps the recently viewed windows in process memory when no
// database is configured.
package recent

import (
	"context"
	"sync"
	"time"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

type Memory struct {
	mu    sync.Mutex
	lists map[domain.RecentOwner][]domain.RecentItem
	now   func() time.Time
}

var _ domain.RecentRepo = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{lists: make(map[domain.RecentOwner][]domain.RecentItem), now: time.Now}
}

func (m *Memory) Touch(_ context.Context, owner domain.RecentOwner, item domain.RecentItem) ([]domain.RecentItem, error) {
	if item.Type == "" {
		item.Type = "window"
	}
	item.OpenedAt = m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.lists[owner]
	next := make([]domain.RecentItem, 0, domain.MaxRecentItems)
	next = append(next, item)
	for _, it := range prev {
		if len(next) == domain.MaxRecentItems {
			break
		}
		if it.ID != item.ID {
			next = append(next, it)
		}
	}
	m.lists[owner] = next
	return append([]domain.RecentItem(nil), next...), nil
}

func (m *Memory) List(_ context.Context, owner domain.RecentOwner) ([]domain.RecentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RecentItem{}, m.lists[owner]...), nil
}

func (m *Memory) Ping(context.Context) error { return nil }
