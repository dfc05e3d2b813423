package words

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDebounce coalesces the burst of events an editor or copy produces.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the lists whenever either file changes, until ctx ends.
// The parent directories are watched so atomic replace-by-rename is seen.
// onReload, if non-nil, is called after each reload attempt.
func (l *Lists) Watch(ctx context.Context, allowedPath, bannedPath string, onReload func(error)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	targets := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range []string{allowedPath, bannedPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return err
		}
	}

	go func() {
		defer fw.Close()
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				abs, _ := filepath.Abs(ev.Name)
				if !targets[abs] {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					pending = time.After(reloadDebounce)
				}
			case <-pending:
				pending = nil
				err := l.Load(allowedPath, bannedPath)
				if err != nil {
					log.Warn().Err(err).Msg("reload word lists")
				} else {
					a, b := l.Stats()
					log.Info().Int("allowed", a).Int("banned", b).Msg("word lists reloaded")
				}
				if onReload != nil {
					onReload(err)
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				// Watch errors are non-fatal.
				log.Warn().Err(err).Msg("word list watcher")
			}
		}
	}()
	return nil
}
