package gekkofx

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// PresetWatcher reloads preset files into a library as they change on disk and
// reports the ids of reloaded presets.
type PresetWatcher struct {
	lib      *EmitterLibrary
	log      Logger
	watcher  *fsnotify.Watcher
	reloaded chan AssetId
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewPresetWatcher(lib *EmitterLibrary, dir string, log Logger) (*PresetWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create preset watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if log == nil {
		log = NewNopLogger()
	}

	w := &PresetWatcher{
		lib:      lib,
		log:      log,
		watcher:  watcher,
		reloaded: make(chan AssetId, 64),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Reloaded delivers the id of every preset reloaded since the last read.
func (w *PresetWatcher) Reloaded() <-chan AssetId {
	return w.reloaded
}

func (w *PresetWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *PresetWatcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				w.reload(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("presets: watcher: %v", err)
		}
	}
}

func (w *PresetWatcher) reload(path string) {
	if _, err := FormatFromPath(path); err != nil {
		return
	}
	id, err := w.lib.LoadFile(path)
	if err != nil {
		// editors often write in several steps; the next event retries
		w.log.Debugf("presets: reload %s: %v", path, err)
		return
	}
	select {
	case w.reloaded <- id:
	case <-w.done:
	default:
		w.log.Warnf("presets: reload queue full, dropped %s", id)
	}
}
