package cmd

import (
	"context"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/plain-mark/markdown2app/log"
)

const defaultDebounce = 200 * time.Millisecond

// watcher reports changes to a fixed set of files. Parent directories are
// watched rather than the files, so editors that replace a file by rename
// are still seen.
type watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]string // absolute path -> path as given
	debounce time.Duration
}

func newWatcher(paths []string, debounce time.Duration) (*watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fsw:      fsw,
		files:    make(map[string]string, len(paths)),
		debounce: debounce,
	}

	dirs := make(map[string]struct{})

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()

			return nil, err
		}

		w.files[abs] = p
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		err := fsw.Add(dir)
		if err != nil {
			_ = fsw.Close()

			return nil, err
		}
	}

	return w, nil
}

// run blocks until ctx is done. After the last event for a watched file,
// and once the debounce period has passed without further events, onChange
// is called with the changed paths in sorted order.
func (w *watcher) run(
	ctx context.Context,
	onChange func(context.Context, []string),
) error {
	defer w.fsw.Close()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatch.Wrap(ErrWatchClosed)
			}

			path, watched := w.files[filepath.Clean(evt.Name)]
			if !watched || !evt.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}

			log.TraceContext(ctx, "document event",
				slog.String("path", path),
				slog.String("op", evt.Op.String()),
			)

			pending[path] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			fire = timer.C

		case <-fire:
			fire = nil

			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)

			onChange(ctx, changed)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatch.Wrap(ErrWatchClosed)
			}

			log.WarnContext(ctx, "watch error", slog.Any("error", err))
		}
	}
}
