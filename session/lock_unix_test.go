//go:build !windows

package session

import (
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"
)

func TestAcquireOrSignalLiveOwner(t *testing.T) {
	path := lockPath(t)

	// This test process plays the recorder, so catch the stop signal
	// before it can terminate us.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)
	defer signal.Stop(sig)

	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	got, signaled, err := AcquireOrSignal(path)
	if err != nil {
		t.Fatalf("AcquireOrSignal: %v", err)
	}
	if !signaled {
		t.Fatal("live lock not signaled")
	}
	if got != nil {
		t.Fatal("second invocation must not hold a lock")
	}

	select {
	case <-sig:
	case <-time.After(2 * time.Second):
		t.Fatal("stop signal never arrived")
	}
}
