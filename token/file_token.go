package token

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/tweetkit/errors"
	"github.com/kbukum/tweetkit/logger"
)

// File is a Provider backed by a file. The file is watched and re-read
// when it changes; a read that yields an empty token keeps the previous one.
//
// The parent directory is watched rather than the file itself so that
// atomic replacements (write to temp, rename over) are seen too.
type File struct {
	path    string
	log     *logger.Logger
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	token string

	done chan struct{}
	once sync.Once
}

// NewFile reads the token at path and starts watching it.
func NewFile(path string) (*File, error) {
	tok, err := readToken(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("token: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("token: watch %s: %w", path, err)
	}

	f := &File{
		path:    filepath.Clean(path),
		log:     logger.WithComponent("token"),
		watcher: watcher,
		token:   tok,
		done:    make(chan struct{}),
	}
	go f.watch()
	return f, nil
}

// Token implements Provider.
func (f *File) Token() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.token
}

// Close stops watching the file.
func (f *File) Close() error {
	var err error
	f.once.Do(func() {
		err = f.watcher.Close()
		<-f.done
	})
	return err
}

func (f *File) watch() {
	defer close(f.done)
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if f.affects(event) {
				f.reload()
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn("token watcher error", logger.Fields(logger.FieldError, err.Error()))
		}
	}
}

// affects reports whether event may have changed the token. Secret mounts
// rotate by swapping a symlink next to the file, so any entry created or
// renamed in the directory counts.
func (f *File) affects(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
		return true
	}
	return event.Has(fsnotify.Write) && filepath.Clean(event.Name) == f.path
}

func (f *File) reload() {
	tok, err := readToken(f.path)
	if err != nil {
		f.log.Warn("keeping previous token", logger.Fields("path", f.path, logger.FieldError, err.Error()))
		return
	}
	f.mu.Lock()
	f.token = tok
	f.mu.Unlock()
	f.log.Debug("token reloaded", logger.Fields("path", f.path))
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.InvalidToken("cannot read token file").WithCause(err).WithDetail("path", path)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", errors.InvalidToken("token file is empty").WithDetail("path", path)
	}
	return tok, nil
}
