package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// fileStore keeps one file per key under dir and uses fsnotify to surface
// writes made by other processes, mirroring the browser storage-change event
// the engine originally relied on.
type fileStore struct {
	dir     string
	watcher *fsnotify.Watcher

	mu          sync.Mutex
	subscribers map[string][]func(value []byte)
	// ownWrites suppresses echoing our own Set back through Subscribe.
	ownWrites map[string]time.Time

	done chan struct{}
}

func NewFile(dir string) (StoreI, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "os.MkdirAll")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "fsnotify.NewWatcher")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "watcher.Add")
	}

	s := &fileStore{
		dir:         dir,
		watcher:     watcher,
		subscribers: map[string][]func(value []byte){},
		ownWrites:   map[string]time.Time{},
		done:        make(chan struct{}),
	}
	go s.watch()
	return s, nil
}

func keyFileName(key string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(key) + ".json"
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, keyFileName(key))
}

func (s *fileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "os.ReadFile")
	}
	return data, true, nil
}

func (s *fileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.ownWrites[keyFileName(key)] = time.Now()
	s.mu.Unlock()

	if err := os.WriteFile(s.path(key), value, 0o644); err != nil {
		return errors.Wrap(err, "os.WriteFile")
	}
	return nil
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "os.Remove")
	}
	return nil
}

func (s *fileStore) Subscribe(key string, fn func(value []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers[keyFileName(key)] = append(s.subscribers[keyFileName(key)], fn)
}

func (s *fileStore) watch() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.dispatch(filepath.Base(event.Name))
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *fileStore) dispatch(name string) {
	s.mu.Lock()
	if written, ok := s.ownWrites[name]; ok && time.Since(written) < time.Second {
		s.mu.Unlock()
		return
	}
	subs := append([]func(value []byte){}, s.subscribers[name]...)
	s.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return
	}
	for _, fn := range subs {
		fn(data)
	}
}

func (s *fileStore) Close() error {
	close(s.done)
	return s.watcher.Close()
}
