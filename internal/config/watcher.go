package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the project config file and invokes a callback with the
// freshly loaded config whenever it changes. Used to hot-apply scheduler
// weight overrides while the orchestrator is running; everything else in
// the config stays fixed until restart.
type Watcher struct {
	path    string
	onLoad  func(*Config)
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching the given config file. The callback runs on the
// watcher goroutine for every successful reload; parse failures leave the
// previous config in effect.
func Watch(path string, onLoad func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace files on save, and a watch on
	// the file itself is lost when the inode changes.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		onLoad:  onLoad,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadFromPath(w.path)
			if err != nil {
				continue
			}
			w.onLoad(cfg)
		case <-w.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	w.watcher.Close()
}
