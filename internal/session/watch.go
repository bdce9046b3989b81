package session

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch observes the session file for external changes and invokes onChange
// with the freshly loaded session whenever another process rewrites it. A
// removed file is reported as a nil session. Watch blocks until ctx is
// cancelled; callers normally run it in its own goroutine.
func (s *FileStore) Watch(ctx context.Context, onChange func(*Session)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Watch the containing directory: editors and this store itself replace
	// the file by rename, which drops a watch registered on the file directly.
	if err = watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename):
				sess, errLoad := s.Load(ctx)
				if errLoad != nil {
					log.Warnf("session reload after external change failed: %v", errLoad)
					continue
				}
				log.Debug("session file changed externally, reloaded")
				onChange(sess)
			case event.Op.Has(fsnotify.Remove):
				log.Debug("session file removed externally")
				onChange(nil)
			}
		case errWatch, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("session file watcher error: %v", errWatch)
		}
	}
}
