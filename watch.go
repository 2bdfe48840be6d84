package rowcheck

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Writes in quick succession are folded into a single run
const DEFAULT_DEBOUNCE = 250 * time.Millisecond

type WatchFunc func(changed []string) error

// Watch calls fn with the files that were written or created, until the
// context is done. Failures of fn are logged and watching goes on.
func Watch(ctx context.Context, paths []string, debounce time.Duration, log zerolog.Logger, fn WatchFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	// editors replace files, so the parent directories are watched
	watched := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return errors.Wrapf(err, "bad path %s", p)
		}
		watched[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
		dirs[dir] = struct{}{}
	}
	log.Info().Int("files", len(watched)).Msg("watching for changes")

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if _, ok := watched[abs]; !ok {
				continue
			}
			pending[abs] = struct{}{}
			timer.Reset(debounce)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)

			log.Debug().Strs("files", changed).Msg("files changed")
			if err := fn(changed); err != nil {
				log.Error().Err(err).Msg("run failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}
