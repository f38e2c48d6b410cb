package session

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func lockPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.lock")
}

func TestAcquireWritesOwnership(t *testing.T) {
	path := lockPath(t)
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.PID != os.Getpid() {
		t.Errorf("pid = %d, want %d", got.PID, os.Getpid())
	}
	if got.Token != l.Token || got.Token == "" {
		t.Errorf("token = %q, want %q", got.Token, l.Token)
	}
	if time.Since(got.CreatedAt) > time.Minute {
		t.Errorf("created_at %v is not recent", got.CreatedAt)
	}
}

func TestAcquireIsExclusive(t *testing.T) {
	path := lockPath(t)
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer l.Release()

	if _, err := Acquire(path); !errors.Is(err, ErrHeld) {
		t.Fatalf("second Acquire = %v, want ErrHeld", err)
	}
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	path := lockPath(t)
	const n = 16
	wins := make(chan *Lock, n)
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			if l, err := Acquire(path); err == nil {
				wins <- l
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	close(wins)
	var winners int
	for l := range wins {
		winners++
		l.Release()
	}
	if winners != 1 {
		t.Fatalf("%d acquisitions succeeded, want exactly 1", winners)
	}
}

func TestAcquireNeverExposesPartialLock(t *testing.T) {
	path := lockPath(t)

	// A concurrent observer must see either no lock or a complete one;
	// an incomplete file would be mistaken for a stale lock and stolen,
	// leaving two recorders.
	stop := make(chan struct{})
	partial := make(chan error, 1)
	observerDone := make(chan struct{})
	go func() {
		defer close(observerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			l, err := Read(path)
			if err != nil && !os.IsNotExist(err) {
				select {
				case partial <- err:
				default:
				}
				return
			}
			if l != nil && l.PID != os.Getpid() {
				select {
				case partial <- errors.New("lock with foreign pid"):
				default:
				}
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		l, err := Acquire(path)
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		if err := l.Release(); err != nil {
			t.Fatalf("Release %d: %v", i, err)
		}
	}
	close(stop)
	<-observerDone

	select {
	case err := <-partial:
		t.Fatalf("observer saw an incomplete lock: %v", err)
	default:
	}
}

func TestStaleLockReclaimed(t *testing.T) {
	path := lockPath(t)

	// A reaped child gives a pid that is no longer running.
	cmd := exec.Command("sleep", "0")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot spawn helper process: %v", err)
	}
	deadPID := cmd.Process.Pid

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "pid=" + strconv.Itoa(deadPID) + "\ntoken=deadbeef\ncreated_at=2026-01-01T00:00:00Z\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l, signaled, err := AcquireOrSignal(path)
	if err != nil {
		t.Fatalf("AcquireOrSignal: %v", err)
	}
	if signaled {
		t.Fatal("signaled a dead process instead of reclaiming")
	}
	if l == nil {
		t.Fatal("no lock returned after reclaim")
	}
	defer l.Release()

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read after reclaim: %v", err)
	}
	if got.PID != os.Getpid() {
		t.Errorf("reclaimed lock pid = %d, want %d", got.PID, os.Getpid())
	}
}

func TestUnreadableLockReclaimed(t *testing.T) {
	path := lockPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not a lock file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, signaled, err := AcquireOrSignal(path)
	if err != nil {
		t.Fatalf("AcquireOrSignal: %v", err)
	}
	if signaled || l == nil {
		t.Fatalf("corrupt lock not reclaimed (signaled=%v)", signaled)
	}
	l.Release()
}

func TestReleaseIdempotent(t *testing.T) {
	path := lockPath(t)
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestReadRejectsMissingPID(t *testing.T) {
	path := lockPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("token=x\ncreated_at=2026-01-01T00:00:00Z\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for lock without pid")
	}
}
