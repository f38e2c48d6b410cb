//go:build !windows

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"testing"

	"microdrop/audio"
	"microdrop/session"
	"microdrop/transcribe"
)

func TestToggleSecondInvocationSignals(t *testing.T) {
	var stdout bytes.Buffer
	c := testController(t, &transcribe.FakeEngine{}, &stdout)

	// The signaling invocation does no audio or model work. It must
	// signal even when the audio backend is broken, or the recorder
	// would be left running.
	c.newAudioCtx = func() (audio.Context, error) {
		t.Error("second invocation opened an audio context")
		return nil, &audio.DeviceError{Op: "connect", Err: errors.New("no sound server")}
	}
	c.newEngine = func() (transcribe.Engine, error) {
		t.Error("second invocation resolved the model")
		return nil, errors.New("unreachable")
	}

	// This test process plays the recorder, so catch the stop signal
	// before it can terminate us.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)
	defer signal.Stop(sig)

	l, err := session.Acquire(c.lockPath)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	if err := c.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("second invocation wrote to stdout: %q", stdout.String())
	}
	if _, statErr := os.Stat(c.lockPath); statErr != nil {
		t.Errorf("signalling invocation must leave the lock in place: %v", statErr)
	}
	<-sig
}
