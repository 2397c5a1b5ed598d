package ports

import (
	"context"
	"time"
)

// ChangeEvent describes one change to a watched path.
type ChangeEvent struct {
	Path string
	Op   string
}

// ChangeBatch is a burst of change events coalesced into one notification.
type ChangeBatch struct {
	Events []ChangeEvent
	At     time.Time
}

// ChangeNotifier subscribes to change notifications for a set of files.
type ChangeNotifier interface {
	// Watch starts a subscription. The returned channel delivers one batch
	// per burst of changes and is closed when the subscription ends, either
	// because ctx was cancelled or because the underlying watcher failed.
	Watch(ctx context.Context, paths []string) (<-chan ChangeBatch, error)
}
