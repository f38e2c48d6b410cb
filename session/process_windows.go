//go:build windows

package session

import "os"

func processAlive(pid int) bool {
	// FindProcess succeeds for any pid on Windows only when the process
	// handle can be opened.
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()
	return true
}

func signalStop(pid int) error {
	// No SIGUSR1 on Windows; os.Interrupt is the closest stop request the
	// recorder already listens for.
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(os.Interrupt)
}
