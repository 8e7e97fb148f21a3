package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ContentWatcher monitors the content file and triggers a push when it changes.
type ContentWatcher struct {
	contentPath  string
	onChange     func()
	watcher      *fsnotify.Watcher
	mu           sync.RWMutex
	stopChan     chan struct{}
	changeChan   chan struct{}
	debounceTime time.Duration
}

// NewContentWatcher creates a watcher for the given content file.
// onChange is called (debounced) after the file is written, created or renamed.
func NewContentWatcher(contentPath string, onChange func()) (*ContentWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(contentPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve content path: %w", err)
	}

	return &ContentWatcher{
		contentPath:  absPath,
		onChange:     onChange,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		changeChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second, // Debounce editor save bursts
	}, nil
}

// Start begins monitoring the content file.
func (cw *ContentWatcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Watch the directory containing the file (more reliable than watching the file
	// directly; editors replace files on save).
	contentDir := filepath.Dir(cw.contentPath)
	if err := cw.watcher.Add(contentDir); err != nil {
		return fmt.Errorf("failed to watch content directory %s: %w", contentDir, err)
	}

	slog.Info("Starting content watcher", "content_path", cw.contentPath)

	go cw.watchLoop(ctx)
	go cw.debounceLoop(ctx)

	return nil
}

// Stop stops the content watcher.
func (cw *ContentWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	slog.Info("Stopping content watcher")
	close(cw.stopChan)

	if cw.watcher != nil {
		if err := cw.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", "error", err)
		}
	}
	return nil
}

func (cw *ContentWatcher) watchLoop(ctx context.Context) {
	contentFile := filepath.Base(cw.contentPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			// Only process events for our content file
			if filepath.Base(event.Name) != contentFile {
				continue
			}

			switch {
			case event.Op&fsnotify.Write == fsnotify.Write:
				slog.Debug("Content file write detected", "file", event.Name)
				cw.triggerChange()
			case event.Op&fsnotify.Create == fsnotify.Create:
				slog.Debug("Content file create detected", "file", event.Name)
				cw.triggerChange()
			case event.Op&fsnotify.Rename == fsnotify.Rename:
				slog.Debug("Content file rename detected", "file", event.Name)
				cw.triggerChange()
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				slog.Warn("Content file removed", "file", event.Name)
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Content watcher error", "error", err)
		}
	}
}

func (cw *ContentWatcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-cw.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-cw.changeChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(cw.debounceTime, cw.onChange)
		}
	}
}

func (cw *ContentWatcher) triggerChange() {
	select {
	case cw.changeChan <- struct{}{}:
	default:
		// Change already pending
	}
}
