// Package hardware arbitrates access to the shared audio/camera hardware
// session. The microphone (held for speech recognition) and the camera
// compete for the same underlying platform session, so only one of them may
// be hot at a time. The Arbiter owns that handover protocol; every component
// that touches the camera or microphone is given the Arbiter explicitly and
// must route acquire/release through it.
//
// The two directions of the handover have different failure semantics:
//
//   - Camera side: deactivating speech audio before presenting camera UI is
//     best-effort. A deactivation failure is logged and camera acquisition
//     proceeds anyway.
//   - Speech side: configuring the audio session for recording is a hard
//     precondition. If configuration fails, listening does not start and the
//     error is returned to the caller.
package hardware

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrAudioUnavailable wraps audio-session configuration failures on the
// speech side of the handover, where no audio means no listening.
var ErrAudioUnavailable = errors.New("audio session unavailable")

// Holder identifies which subsystem currently holds the hardware session.
type Holder int

const (
	HolderNone Holder = iota
	HolderSpeech
	HolderCamera
)

// String returns the holder name for logs.
func (h Holder) String() string {
	switch h {
	case HolderSpeech:
		return "speech"
	case HolderCamera:
		return "camera"
	default:
		return "none"
	}
}

// AudioSession is the platform audio session the speech subsystem records
// through. Implementations wrap the host OS audio APIs.
type AudioSession interface {
	// ConfigureForRecording prepares the session for microphone capture.
	// An error means recording is impossible and listening must not start.
	ConfigureForRecording() error

	// Deactivate releases the session so other hardware can use it.
	Deactivate() error
}

// Recognizer is a live speech-recognition task. The Arbiter only ever needs
// to cancel it; transcription itself is the speech subsystem's concern.
type Recognizer interface {
	Cancel()
}

// Arbiter tracks the current hardware-session holder and enforces the
// handover ordering between speech audio and the camera. All methods are
// safe for concurrent use.
type Arbiter struct {
	audio  AudioSession
	logger *slog.Logger

	mu        sync.Mutex
	holder    Holder
	task      Recognizer
	listeners []func()
}

// NewArbiter creates an Arbiter over the given audio session. A nil logger
// falls back to slog.Default().
func NewArbiter(audio AudioSession, logger *slog.Logger) *Arbiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbiter{audio: audio, logger: logger}
}

// Holder returns the subsystem currently holding the hardware session.
func (a *Arbiter) Holder() Holder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holder
}

// HoldsAudio reports whether speech currently holds the audio session.
func (a *Arbiter) HoldsAudio() bool {
	return a.Holder() == HolderSpeech
}

// NotifyDeactivated registers fn to be called whenever speech audio is
// deactivated, so other interested listeners can react. Callbacks run outside
// the Arbiter's lock.
func (a *Arbiter) NotifyDeactivated(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// ReleaseAudioForCamera ensures speech audio is not active and marks the
// camera as the session holder. It must complete before any camera-class UI
// (barcode scanner, document scanner, plain camera) is presented.
//
// Deactivation is best-effort from the camera side: a failure is logged and
// the camera attempt proceeds regardless.
func (a *Arbiter) ReleaseAudioForCamera() {
	a.mu.Lock()
	var notify []func()
	if a.holder == HolderSpeech {
		if a.task != nil {
			a.task.Cancel()
			a.task = nil
		}
		if err := a.audio.Deactivate(); err != nil {
			a.logger.Warn("audio session deactivation failed, camera acquisition proceeds",
				"error", err)
		}
		notify = append(notify, a.listeners...)
	}
	a.holder = HolderCamera
	a.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

// ReleaseCamera marks the hardware session as free once camera UI has been
// dismissed.
func (a *Arbiter) ReleaseCamera() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.holder == HolderCamera {
		a.holder = HolderNone
	}
}

// AcquireForSpeech prepares the audio session for recording and starts a new
// recognition task via start. Any prior recognition task is cancelled first.
//
// This is the hard-failure direction: if the session cannot be configured or
// the task cannot start, the holder is left unchanged and the error is
// returned. No audio means no listening is possible.
func (a *Arbiter) AcquireForSpeech(start func() (Recognizer, error)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.task != nil {
		a.task.Cancel()
		a.task = nil
	}

	if err := a.audio.ConfigureForRecording(); err != nil {
		return fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}

	task, err := start()
	if err != nil {
		return fmt.Errorf("failed to start recognition task: %w", err)
	}

	a.task = task
	a.holder = HolderSpeech
	return nil
}

// StopListening cancels the active recognition task and deactivates the audio
// session, notifying deactivation listeners. Deactivation failures are logged
// and otherwise ignored.
func (a *Arbiter) StopListening() {
	a.mu.Lock()
	var notify []func()
	if a.holder == HolderSpeech {
		if a.task != nil {
			a.task.Cancel()
			a.task = nil
		}
		if err := a.audio.Deactivate(); err != nil {
			a.logger.Warn("audio session deactivation failed", "error", err)
		}
		a.holder = HolderNone
		notify = append(notify, a.listeners...)
	}
	a.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}
