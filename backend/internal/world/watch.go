package world

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watcher следит за YAML файлами в каталогах и отдает имена измененных файлов
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

// run копит события и отдает файл, когда он перестал меняться на watchDebounce.
// Запись файла приходит несколькими событиями, читать его раньше нельзя.
func (w *Watcher) run() {
	defer close(w.done)
	pending := make(map[string]struct{})
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isManifestFile(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(watchDebounce)
		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			pending = make(map[string]struct{})
			for _, name := range names {
				select {
				case w.Events <- name:
				case <-w.closeCh:
					return
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// WatchConfig перечитывает конфигурацию при изменении файла и кладет ее в store.
// Ошибочный файл логируется, текущая конфигурация остается.
func WatchConfig(path string, store *ConfigStore, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	w, err := NewWatcher(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case name, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(name) != target {
					continue
				}
				cfg, err := LoadConfig(path)
				if err != nil {
					logger.Printf("[Config] Ошибка перезагрузки %s: %v", path, err)
					continue
				}
				store.Set(cfg)
				logger.Printf("[Config] Конфигурация перезагружена из %s", path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Printf("[Config] Ошибка наблюдения: %v", err)
			}
		}
	}()
	return w, nil
}

// WatchManifests перезагружает измененные манифесты мешей и вызывает onReload
func WatchManifests(dir string, library *MeshLibrary, loader *ShapeLoader, logger *log.Logger, onReload func(path string)) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	w, err := NewWatcher(dir)
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			select {
			case name, ok := <-w.Events:
				if !ok {
					return
				}
				if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
					removed := library.RemoveSource(name)
					if loader != nil {
						loader.Invalidate()
					}
					logger.Printf("[World] Манифест %s удален, убрано мешей: %d", name, removed)
					if onReload != nil {
						onReload(name)
					}
					continue
				}
				n, err := library.LoadManifest(name)
				if err != nil {
					logger.Printf("[World] Ошибка перезагрузки манифеста %s: %v", name, err)
					continue
				}
				if loader != nil {
					loader.Invalidate()
				}
				logger.Printf("[World] Манифест %s перезагружен, мешей: %d", name, n)
				if onReload != nil {
					onReload(name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Printf("[World] Ошибка наблюдения: %v", err)
			}
		}
	}()
	return w, nil
}
