// Package watch implements ports.ChangeNotifier on top of fsnotify.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/wallrotate/internal/domain"
	"github.com/bft-labs/wallrotate/internal/ports"
)

// DefaultDebounce is how long the notifier waits for a burst of events on
// the watched files to settle before emitting one batch.
const DefaultDebounce = 100 * time.Millisecond

// Notifier watches a set of files.
//
// Editors and atomic savers replace files by renaming a temp file over them,
// which drops inotify watches on the file itself, so the notifier watches the
// parent directories and filters events by file name.
type Notifier struct {
	debounce time.Duration
	logger   ports.Logger
}

// NewNotifier creates a notifier. A non-positive debounce uses DefaultDebounce.
func NewNotifier(debounce time.Duration, logger ports.Logger) *Notifier {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Notifier{debounce: debounce, logger: logger}
}

// Watch subscribes to changes of paths. The returned channel receives one
// batch per settled burst and is closed when ctx is done or the underlying
// watcher fails.
func (n *Notifier) Watch(ctx context.Context, paths []string) (<-chan ports.ChangeBatch, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths to watch", domain.ErrNotification)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: create watcher: %w", domain.ErrNotification, err)
	}

	names := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		names[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("%w: watch %s: %w", domain.ErrNotification, dir, err)
		}
	}

	out := make(chan ports.ChangeBatch)
	go n.loop(ctx, watcher, names, out)
	return out, nil
}

func (n *Notifier) loop(ctx context.Context, watcher *fsnotify.Watcher, names map[string]struct{}, out chan<- ports.ChangeBatch) {
	defer close(out)
	defer watcher.Close()

	var pending []ports.ChangeEvent
	flush := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				name = filepath.Clean(event.Name)
			}
			if _, watched := names[name]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			pending = append(pending, ports.ChangeEvent{Path: name, Op: event.Op.String()})

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(n.debounce, func() {
				select {
				case flush <- struct{}{}:
				default:
				}
			})

		case <-flush:
			batch := ports.ChangeBatch{Events: pending, At: time.Now()}
			pending = nil
			if len(batch.Events) == 0 {
				continue
			}
			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			n.logger.Error("watcher error", ports.Err(err))
			return
		}
	}
}
