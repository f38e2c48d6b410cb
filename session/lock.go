// Package session implements the cross-process toggle protocol. A recording
// session is represented by a lock file created with exclusive-create
// semantics; a second invocation observing the lock signals the owner to stop
// instead of recording itself.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lock is the durable record of "a capture is in progress".
type Lock struct {
	PID       int
	Token     string
	CreatedAt time.Time

	path string
}

// ErrHeld is returned by Acquire when a lock file already exists.
var ErrHeld = errors.New("session lock already held")

// DefaultPath returns the lock file location under the XDG state dir
// (~/.local/state/microdrop/session.lock by default).
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "microdrop", "session.lock"), nil
}

// Acquire atomically creates the lock file for this process. It fails with
// ErrHeld if a lock already exists, regardless of staleness. The contents
// are written to a private temp file first and linked into place, so the
// lock path never exposes a partially written file: any observer sees
// either no lock or a complete one.
func Acquire(path string) (*Lock, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	l := &Lock{
		PID:       os.Getpid(),
		Token:     uuid.NewString(),
		CreatedAt: time.Now(),
		path:      path,
	}

	f, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return nil, fmt.Errorf("create session lock: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	_, err = fmt.Fprintf(f, "pid=%d\ntoken=%s\ncreated_at=%s\n",
		l.PID, l.Token, l.CreatedAt.Format(time.RFC3339))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write session lock: %w", err)
	}

	if err := os.Link(tmp, path); err != nil {
		if os.IsExist(err) {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("create session lock: %w", err)
	}
	return l, nil
}

// Read parses an existing lock file.
func Read(path string) (*Lock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l := &Lock{path: path}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			l.PID, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("malformed pid in session lock: %w", err)
			}
		case "token":
			l.Token = val
		case "created_at":
			l.CreatedAt, _ = time.Parse(time.RFC3339, val)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if l.PID == 0 {
		return nil, fmt.Errorf("malformed session lock: missing pid")
	}
	return l, nil
}

// Release removes the lock file. Releasing an already-removed lock is not an
// error.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session lock: %w", err)
	}
	return nil
}

// Alive reports whether the owning process is still running.
func (l *Lock) Alive() bool {
	return processAlive(l.PID)
}

// SignalStop delivers the stop signal to the owning process.
func (l *Lock) SignalStop() error {
	if err := signalStop(l.PID); err != nil {
		return fmt.Errorf("signal recorder pid %d: %w", l.PID, err)
	}
	return nil
}

// AcquireOrSignal implements the toggle decision. On success the returned
// lock is non-nil and this process is the recorder. If a live lock exists,
// the owner is signalled to stop and (nil, true, nil) is returned; the caller
// must exit without doing audio work. A stale lock (dead owner, or a file
// this process cannot parse) is reclaimed with exactly one retry.
func AcquireOrSignal(path string) (*Lock, bool, error) {
	l, err := Acquire(path)
	if err == nil {
		return l, false, nil
	}
	if !errors.Is(err, ErrHeld) {
		return nil, false, err
	}

	existing, readErr := Read(path)
	if readErr == nil && existing.Alive() {
		if err := existing.SignalStop(); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	// Stale or unreadable lock: reclaim and retry once. Creation is
	// atomic, so an unreadable file is damage, never a lock mid-write.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("remove stale session lock: %w", err)
	}
	l, err = Acquire(path)
	if err == nil {
		return l, false, nil
	}
	if errors.Is(err, ErrHeld) {
		// Lost the reclaim race; the winner is the recorder now.
		if existing, readErr := Read(path); readErr == nil && existing.Alive() {
			if err := existing.SignalStop(); err != nil {
				return nil, false, err
			}
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("session lock contention at %s", path)
	}
	return nil, false, err
}
