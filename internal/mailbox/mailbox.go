package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Mailbox is a file path holding at most one pending Command.
//
// Writers replace the file atomically; the reader deletes it on consumption. No
// locks are taken: a rename is atomic and the controller's staleness check
// rejects anything replayed.
type Mailbox struct {
	path string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	changed chan struct{}
	done    chan struct{}
}

// New returns a mailbox rooted at path.
func New(path string) *Mailbox {
	return &Mailbox{path: filepath.Clean(path)}
}

// Path returns the mailbox file location.
func (m *Mailbox) Path() string {
	return m.path
}

// Submit atomically replaces the mailbox content with cmd, superseding any
// unconsumed command.
func (m *Mailbox) Submit(cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ensure mailbox dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create mailbox temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write mailbox temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync mailbox temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close mailbox temp file: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		cleanup()
		return fmt.Errorf("replace mailbox %s: %w", m.path, err)
	}
	return nil
}

// TryTake consumes the pending command, if any.
//
// The record is first claimed by renaming it aside, so a Submit racing with
// the take lands as a fresh record for the next poll instead of being
// deleted unread. A claimed record that could not be read is retried on the
// next call unless a newer submission replaces it. The claimed file is
// deleted before parsing, so a malformed record is reported once with
// ErrMalformedRecord and never retried.
func (m *Mailbox) TryTake() (Command, bool, error) {
	claimed := m.claimPath()
	if err := os.Rename(m.path, claimed); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Command{}, false, fmt.Errorf("claim mailbox %s: %w", m.path, err)
	}

	data, err := os.ReadFile(claimed)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Command{}, false, nil
		}
		return Command{}, false, fmt.Errorf("read mailbox %s: %w", claimed, err)
	}

	if err := os.Remove(claimed); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Command{}, false, fmt.Errorf("remove mailbox %s: %w", claimed, err)
	}

	cmd, err := decodeCommand(data)
	if err != nil {
		return Command{}, true, err
	}
	return cmd, true, nil
}

// claimPath is where TryTake moves a record while consuming it.
func (m *Mailbox) claimPath() string {
	return m.path + ".taking"
}

// Peek reads the pending command without consuming it.
func (m *Mailbox) Peek() (Command, bool, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Command{}, false, nil
		}
		return Command{}, false, fmt.Errorf("read mailbox %s: %w", m.path, err)
	}
	cmd, err := decodeCommand(data)
	if err != nil {
		return Command{}, true, err
	}
	return cmd, true, nil
}

// Watch subscribes to filesystem notifications for the mailbox directory so
// Wait can return as soon as a new command lands.
func (m *Mailbox) Watch() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		return nil
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ensure mailbox dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create mailbox watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch mailbox dir %s: %w", dir, err)
	}

	m.watcher = watcher
	m.changed = make(chan struct{}, 1)
	m.done = make(chan struct{})
	go m.forward(watcher, m.changed, m.done)
	return nil
}

// forward coalesces mailbox create/write events into a single pending wakeup.
func (m *Mailbox) forward(watcher *fsnotify.Watcher, changed chan<- struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != m.path {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			select {
			case changed <- struct{}{}:
			default:
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Wait blocks until the next poll is due: interval elapsed, a change
// notification arrived, or ctx was cancelled.
func (m *Mailbox) Wait(ctx context.Context, interval time.Duration) error {
	m.mu.Lock()
	changed := m.changed
	m.mu.Unlock()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-changed:
		return nil
	}
}

// Close stops filesystem notifications.
func (m *Mailbox) Close() error {
	m.mu.Lock()
	watcher := m.watcher
	done := m.done
	m.watcher = nil
	m.changed = nil
	m.done = nil
	m.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}
