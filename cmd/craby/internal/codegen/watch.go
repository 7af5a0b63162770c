package codegen

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls OnChange once per burst of relevant file system events.
type Watcher struct {
	// Dirs are watched recursively; directories created later are added.
	Dirs []string

	// Files are watched individually and always count as relevant.
	Files []string

	// Match reports whether a changed path under Dirs is relevant.
	Match func(path string) bool

	OnChange func()
	Debounce time.Duration
	Logger   *zap.Logger
}

// SpecFilter matches spec file names, e.g. NativeCalculator.ts for "Native".
func SpecFilter(prefix string) func(string) bool {
	return func(path string) bool {
		name := filepath.Base(path)
		return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".ts") && !strings.HasSuffix(name, ".d.ts")
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Logger
	if log == nil {
		log = logger.Named("watch")
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	defer fw.Close()

	for _, dir := range w.Dirs {
		if err := addTree(fw, dir); err != nil {
			return err
		}
	}
	files := make(map[string]bool, len(w.Files))
	for _, f := range w.Files {
		// Watch the parent: editors replace files on save, which drops a
		// watch on the file itself.
		if err := fw.Add(filepath.Dir(f)); err != nil {
			return errors.Wrapf(err, "watch %s", f)
		}
		files[filepath.Clean(f)] = true
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, w.OnChange)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fw, event.Name); err != nil {
						log.Warn("watch new directory", zap.String(logger.FieldFile, event.Name), zap.Error(err))
					}
					continue
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			path := filepath.Clean(event.Name)
			if !files[path] && (w.Match == nil || !w.Match(path)) {
				continue
			}
			log.Debug("change", zap.String(logger.FieldFile, path), zap.String("op", event.Op.String()))
			schedule()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
		return nil
	})
}
