package pages

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch drops cached renderings when files under the root change and calls
// onChange with the root-relative name of each changed page. It blocks until
// ctx is done. onChange runs on the watcher goroutine.
func (s *Source) Watch(ctx context.Context, onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.addDirs(watcher, s.root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(watcher, e, onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("page watcher error", zap.Error(err))
		}
	}
}

func (s *Source) handleEvent(watcher *fsnotify.Watcher, e fsnotify.Event, onChange func(string)) {
	if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if e.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
			if err := s.addDirs(watcher, e.Name); err != nil {
				s.log.Warn("watching new directory", zap.String("dir", e.Name), zap.Error(err))
			}
			return
		}
	}
	if _, ok := kindOf(e.Name); !ok {
		return
	}
	name, ok := s.pageName(e.Name)
	if !ok {
		return
	}

	n := s.Invalidate(name)
	s.log.Debug("page changed",
		zap.String("name", name),
		zap.Stringer("op", e.Op),
		zap.Int("invalidated", n))
	if onChange != nil {
		onChange(name)
	}
}

func (s *Source) addDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
