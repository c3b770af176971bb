package guraffic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SceneUpdate is a freshly parsed scene description, or the error that stopped it from parsing.
type SceneUpdate struct {
	Path string
	Desc *SceneDesc
	Err  error
}

// ReloadDelay is how long WatchSceneFile waits after the last change to a scene file before parsing it, so that an
// editor's burst of writes results in a single reload.
var ReloadDelay = 100 * time.Millisecond

// WatchSceneFile watches the scene file at file and sends a SceneUpdate over updates every time it changes. Only
// parsing happens here; the receiver (the frame loop) builds the new Scene, so no Graph is touched off its
// goroutine. WatchSceneFile blocks until ctx is canceled (returning nil) or the watcher fails.
func WatchSceneFile(ctx context.Context, file string, updates chan<- SceneUpdate) error {

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", file, err)
	}
	defer watcher.Close()

	file = filepath.Clean(file)
	dir := filepath.Dir(file)

	// Editors often save by writing a new file and renaming it over the old one, which a watch on the file itself
	// would lose track of; the directory is watched instead.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", file, err)
	}

	logger.Info("watching scene file", "file", file)

	var timer *time.Timer
	var fire <-chan time.Time

	for {

		select {

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != file || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// A fresh timer per event; resetting one whose tick is already pending would reload early.
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(ReloadDelay)
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("scene file watcher", "file", file, "error", err)

		case <-fire:
			fire = nil

			update := SceneUpdate{Path: file}
			update.Desc, update.Err = LoadSceneFile(os.DirFS(dir), filepath.Base(file))

			if update.Err != nil {
				logger.Warn("scene file didn't parse; keeping the current scene", "file", file, "error", update.Err)
			} else {
				logger.Info("scene file changed", "file", file)
			}

			select {
			case updates <- update:
			case <-ctx.Done():
				return nil
			}

		}

	}

}
