package main

import (
	"context"
	"io"
	"os"
	"time"

	"microdrop/audio"
	"microdrop/config"
	"microdrop/log"
	"microdrop/output"
	"microdrop/session"
	"microdrop/transcribe"
)

// phase tracks the toggle lifecycle. Only recording is visible to other
// processes, through the lock file.
type phase string

const (
	phaseIdle         phase = "idle"
	phaseRecording    phase = "recording"
	phaseStopping     phase = "stopping"
	phaseTranscribing phase = "transcribing"
	phaseDone         phase = "done"
	phaseFailed       phase = "failed"
)

// controller runs one toggle invocation end to end. Dependencies are
// injected so tests can swap the audio backend and the speech engine.
type controller struct {
	cfg         config.Config
	lockPath    string
	newAudioCtx func() (audio.Context, error)
	newEngine   func() (transcribe.Engine, error)
	disp        *output.Dispatcher
	opts        output.Options

	// stop receives one value per stop trigger, tagged with its origin.
	// The first value ends the recording; a second one cancels inference.
	stop    chan string
	maxDur  time.Duration
	request audio.CaptureConfig

	phase phase
}

func (c *controller) setPhase(p phase) {
	c.phase = p
	log.Debugf("phase: %s", p)
}

// run is the whole toggle: acquire-or-signal, record until a stop trigger,
// flush, normalize, transcribe, dispatch, release.
func (c *controller) run(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			c.setPhase(phaseFailed)
			log.SessionEnd(string(phaseFailed))
		}
	}()

	// The toggle decision comes first: a second invocation only signals
	// and must not touch the audio stack or the model at all.
	lock, signaled, err := session.AcquireOrSignal(c.lockPath)
	if err != nil {
		return err
	}
	if signaled {
		log.Info("recording in progress, sent stop signal")
		log.SessionEnd("signaled")
		return nil
	}
	defer lock.Release()

	// Fail before touching the microphone if the model is unusable.
	engine, err := c.newEngine()
	if err != nil {
		return err
	}

	audioCtx, err := c.newAudioCtx()
	if err != nil {
		return err
	}
	defer audioCtx.Close()

	dev, err := audio.FindDevice(audioCtx, c.cfg.Audio.Device)
	if err != nil {
		return err
	}
	capture, err := audioCtx.NewCapture(dev, c.request)
	if err != nil {
		return err
	}
	defer capture.Close()

	recorder := audio.NewRecorder(capture, c.cfg.Audio.HeadroomSeconds)
	if err := recorder.Start(); err != nil {
		return err
	}
	c.setPhase(phaseRecording)
	log.SessionStart(lock.Token, capture.DeviceName())

	reason := c.waitForStop()
	c.setPhase(phaseStopping)
	log.Infof("stopping recording (%s)", reason)

	res := recorder.Stop()
	log.CaptureStats(res.Frames, len(res.Batches), res.Overflow, res.Duration.Seconds())

	samples, err := audio.Normalize(res.Batches, res.Format)
	if err != nil {
		return transcribe.PreprocessError(err)
	}

	c.setPhase(phaseTranscribing)
	infCtx, cancelInference := context.WithCancel(ctx)
	defer cancelInference()
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case r := <-c.stop:
			log.Infof("cancelling transcription (%s)", r)
			cancelInference()
		case <-watchDone:
		}
	}()

	pipeline := &transcribe.Pipeline{
		Engine:     engine,
		CancelWait: time.Duration(c.cfg.Model.CancelWaitSeconds) * time.Second,
	}
	result, err := pipeline.Run(infCtx, samples)
	if err != nil {
		return err
	}
	log.TranscriptionDone(len(result.Transcript.Segments),
		float64(result.Transcript.ProcessingTime.Milliseconds()), result.Cancelled)

	opts := c.opts
	opts.SideEffects = !result.Cancelled
	if err := c.disp.Dispatch(result.Transcript, opts); err != nil {
		return err
	}

	c.setPhase(phaseDone)
	log.SessionEnd(string(phaseDone))
	return nil
}

// waitForStop blocks until the first stop trigger fires. The duration cap is
// one more trigger alongside the merged signal channel.
func (c *controller) waitForStop() string {
	var capped <-chan time.Time
	if c.maxDur > 0 {
		capped = time.After(c.maxDur)
	}
	select {
	case reason := <-c.stop:
		return reason
	case <-capped:
		return "duration limit"
	}
}

// watchStdin pushes a stop trigger when stdin reaches EOF. Only meaningful
// when stdin is a pipe; terminals and /dev/null are ignored so a hotkey
// daemon invocation does not stop instantly.
func watchStdin(stdin *os.File, stop chan<- string) {
	info, err := stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return
	}
	go func() {
		io.Copy(io.Discard, stdin)
		select {
		case stop <- "stdin closed":
		default:
		}
	}()
}
