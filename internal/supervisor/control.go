package supervisor

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Controller relays operator signals into the supervisor via files in
// the project's .foreman/signals directory. An `abort` file stops all
// spawning and cancels running executors; a `pause` file holds new
// spawns until it is cleared.
type Controller struct {
	foremanDir string

	mu          sync.RWMutex
	abortSignal bool
	pauseSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewController creates a signal controller for the given project root.
func NewController(projectRoot string) (*Controller, error) {
	foremanDir := filepath.Join(projectRoot, ".foreman")
	signalsDir := filepath.Join(foremanDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	c := &Controller{
		foremanDir: foremanDir,
		done:       make(chan struct{}),
	}

	// Start file watcher for immediate signals
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - callers fall back to stat polling
		return c, nil
	}
	c.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		c.watcher = nil
		return c, nil
	}

	go c.watchSignals()

	return c, nil
}

// watchSignals monitors the signals directory for abort/pause files.
func (c *Controller) watchSignals() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			created := event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0
			removed := event.Op&fsnotify.Remove != 0

			c.mu.Lock()
			switch filepath.Base(event.Name) {
			case "abort":
				if created {
					c.abortSignal = true
				}
			case "pause":
				if created {
					c.pauseSignal = true
				} else if removed {
					c.pauseSignal = false
				}
			}
			c.mu.Unlock()
		case <-c.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// ShouldAbort returns true if an abort signal has been received.
func (c *Controller) ShouldAbort() bool {
	// Also check the file directly in case the watcher missed it
	abortPath := filepath.Join(c.foremanDir, "signals", "abort")
	if _, err := os.Stat(abortPath); err == nil {
		c.mu.Lock()
		c.abortSignal = true
		c.mu.Unlock()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.abortSignal
}

// ShouldPause returns true if a pause signal is in effect.
func (c *Controller) ShouldPause() bool {
	pausePath := filepath.Join(c.foremanDir, "signals", "pause")
	_, err := os.Stat(pausePath)

	c.mu.Lock()
	c.pauseSignal = err == nil
	v := c.pauseSignal
	c.mu.Unlock()
	return v
}

// SendAbort creates an abort signal file.
func (c *Controller) SendAbort() error {
	path := filepath.Join(c.foremanDir, "signals", "abort")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// SendPause creates a pause signal file.
func (c *Controller) SendPause() error {
	path := filepath.Join(c.foremanDir, "signals", "pause")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearSignals removes all signal files and resets signal state.
func (c *Controller) ClearSignals() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abortSignal = false
	c.pauseSignal = false

	os.Remove(filepath.Join(c.foremanDir, "signals", "abort"))
	os.Remove(filepath.Join(c.foremanDir, "signals", "pause"))
}

// Close shuts down the controller.
func (c *Controller) Close() {
	close(c.done)
	if c.watcher != nil {
		c.watcher.Close()
	}
}
