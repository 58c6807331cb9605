package domain

import "context"

// MaxRecentItems bounds the recently viewed list per user and role.
const MaxRecentItems = 5

// RecentOwner identifies whose recent list is read or written.
type RecentOwner struct {
	UserID string
	RoleID string
}

// RecentRepo keeps recently opened windows, most recent first.
type RecentRepo interface {
	// Touch moves item to the front, trims the list and returns it.
	Touch(ctx context.Context, owner RecentOwner, item RecentItem) ([]RecentItem, error)
	List(ctx context.Context, owner RecentOwner) ([]RecentItem, error)
	Ping(ctx context.Context) error
}
