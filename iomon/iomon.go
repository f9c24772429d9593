// Package iomon watches kernel pseudo files and hands their contents to
// registered callbacks whenever the kernel signals a change. Callbacks
// run on the daemon main loop.
package iomon

import (
	"errors"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jhnikula/mce/logger"
	"github.com/jhnikula/mce/mainloop"
)

var lg = logger.Slog

// ErrorPolicy decides what happens to a monitor whose file stops being
// readable.
type ErrorPolicy int

const (
	// PolicyIgnore logs the failure and keeps the monitor alive.
	PolicyIgnore ErrorPolicy = iota
	// PolicyRemove tears the monitor down on the first failure.
	PolicyRemove
)

// Callback receives the full file contents after each change. Returning
// false tears the monitor down, true keeps it alive.
type Callback func(data []byte) bool

type Monitor struct {
	registry *Registry
	path     string
	policy   ErrorPolicy
	cb       Callback
}

func (m *Monitor) Path() string {
	return m.path
}

// Close unregisters the monitor. Safe to call more than once.
func (m *Monitor) Close() {
	m.registry.close(m)
}

// Registry owns one filesystem watcher and the monitors attached to it.
type Registry struct {
	loop    *mainloop.Loop
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	monitors map[string]*Monitor
	closed   bool
}

func NewRegistry(loop *mainloop.Loop) (*Registry, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	r := &Registry{
		loop:     loop,
		watcher:  watcher,
		monitors: make(map[string]*Monitor),
	}
	go r.watch()
	return r, nil
}

func (r *Registry) watch() {
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod) == 0 {
				continue
			}
			path := ev.Name
			r.loop.Post(func() { r.dispatch(path) })
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			lg.Debug("watch error", "error", err)
		}
	}
}

func (r *Registry) dispatch(path string) {
	r.mu.Lock()
	m := r.monitors[path]
	r.mu.Unlock()
	if m == nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if m.policy == PolicyRemove {
			lg.Debug("monitored file unreadable, removing monitor", "path", path, "error", err)
			m.Close()
		} else {
			lg.Debug("monitored file unreadable", "path", path, "error", err)
		}
		return
	}
	if !m.cb(data) {
		m.Close()
	}
}

// Open attaches a monitor to path. The file must exist and be readable;
// no callback is delivered for the current contents, only for changes.
func (r *Registry) Open(path string, policy ErrorPolicy, cb Callback) (*Monitor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("iomon: registry is closed")
	}
	if _, ok := r.monitors[path]; ok {
		return nil, errors.New("iomon: already monitoring " + path)
	}
	if err := r.watcher.Add(path); err != nil {
		return nil, err
	}
	m := &Monitor{registry: r, path: path, policy: policy, cb: cb}
	r.monitors[path] = m
	return m, nil
}

func (r *Registry) close(m *Monitor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.monitors[m.path] != m {
		return
	}
	delete(r.monitors, m.path)
	if err := r.watcher.Remove(m.path); err != nil {
		lg.Debug("watch removal failed", "path", m.path, "error", err)
	}
}

// Count reports how many monitors are currently attached.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.monitors)
}

// Close shuts the registry down. Monitors still attached stop receiving
// callbacks.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.monitors = make(map[string]*Monitor)
	r.mu.Unlock()
	return r.watcher.Close()
}

// WriteString writes value to a sysfs control file, logging the outcome.
func WriteString(path, value string) error {
	err := os.WriteFile(path, []byte(value), 0644)
	if err != nil {
		lg.Warn("sysfs write failed", "path", path, "error", err)
		return err
	}
	lg.Debug("sysfs write", "path", path, "value", value)
	return nil
}
