package tier

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
)

const reloadDebounce = 200 * time.Millisecond

// Watcher reloads the rules file when it changes and installs the new
// snapshot into the classifier. A reload that fails to parse keeps the
// current snapshot: a broken edit must never widen permissions.
type Watcher struct {
	source     *Source
	classifier *Classifier
	watcher    *fsnotify.Watcher
	log        *logger.Logger
	stop       chan struct{}
}

// NewWatcher starts watching the source's rules file. Returns nil when
// there is no file to watch; watch setup failure degrades to a warning
// since the boot-time snapshot keeps working.
func NewWatcher(source *Source, classifier *Classifier, log *logger.Logger) *Watcher {
	if source == nil || source.Path() == "" {
		return nil
	}
	if log == nil {
		log = logger.Global()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("tier rules watcher unavailable: %v", err)
		return nil
	}

	// Watch the directory: editors and atomic writers replace the file
	// by rename, which drops a watch set on the file itself.
	dir := filepath.Dir(source.Path())
	if err := fsw.Add(dir); err != nil {
		log.Warn("failed to watch tier rules directory %s: %v", dir, err)
		fsw.Close()
		return nil
	}

	w := &Watcher{
		source:     source,
		classifier: classifier,
		watcher:    fsw,
		log:        log.WithPrefix("tier-watch"),
		stop:       make(chan struct{}),
	}
	go w.run()
	return w
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	target := filepath.Clean(w.source.Path())

	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
				debounceC = debounce.C
			} else {
				debounce.Reset(reloadDebounce)
			}
		case <-debounceC:
			debounce = nil
			debounceC = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("tier rules watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	table, err := w.source.Load()
	if err != nil {
		w.log.Warn("tier rules reload failed, keeping current snapshot: %v", err)
		return
	}
	w.classifier.SetTable(table)
	base, overrides := table.Len()
	w.log.Info("tier rules reloaded: %d base rules, %d overrides", base, overrides)
}
