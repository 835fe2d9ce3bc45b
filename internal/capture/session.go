package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/pagekeep/pagekeep/internal/annotate"
	"github.com/pagekeep/pagekeep/internal/hardware"
	"github.com/pagekeep/pagekeep/internal/raster"
	"github.com/pagekeep/pagekeep/internal/store"
)

// DefaultSaveDebounce is the minimum time between accepted save triggers.
const DefaultSaveDebounce = 750 * time.Millisecond

// ErrInvalidState is returned when an operation is requested in a state that
// does not permit it.
var ErrInvalidState = errors.New("operation not valid in current state")

// State is a capture session's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateAcquired
	StateRectifying
	StateAnnotating
	StatePersisting
	StateCommitted
	StateCancelled
)

// String returns the state name used in logs and errors.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateAcquired:
		return "acquired"
	case StateRectifying:
		return "rectifying"
	case StateAnnotating:
		return "annotating"
	case StatePersisting:
		return "persisting"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateCancelled
}

// Transition is delivered to the session observer on every state change. Err
// carries the failure that caused the transition, if any (e.g. a store write
// failure returning the session to the decision point).
type Transition struct {
	From State
	To   State
	Err  error
}

// Config assembles a capture session's collaborators.
type Config struct {
	// Book is the book the final artifact will be filed under. Required.
	Book store.BookID

	// Acquirer supplies the raw capture. Required.
	Acquirer Acquirer

	// Archive receives the final artifact. Required.
	Archive store.Archive

	// Arbiter coordinates the audio/camera hardware handover. Required.
	Arbiter *hardware.Arbiter

	// Observer, if set, receives every state transition. Called outside
	// the session lock; it must not block for long.
	Observer func(Transition)

	// JPEGQuality for the final artifact. Zero means
	// raster.DefaultJPEGQuality.
	JPEGQuality int

	// SaveDebounce is the minimum time between accepted save triggers.
	// Zero means DefaultSaveDebounce; a negative value disables the gate.
	SaveDebounce time.Duration

	// Logger for non-fatal diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Session is one end-to-end capture interaction. It produces at most one
// committed artifact and is not reusable after reaching a terminal state.
type Session struct {
	book     store.BookID
	acquirer Acquirer
	archive  store.Archive
	arbiter  *hardware.Arbiter
	observer func(Transition)
	quality  int
	saveGate *Gate
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	current   image.Image
	annot     *annotate.Session
	committed store.PhotoID
}

// NewSession validates cfg and creates an idle session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Book == "" {
		return nil, fmt.Errorf("capture: book is required")
	}
	if cfg.Acquirer == nil {
		return nil, fmt.Errorf("capture: acquirer is required")
	}
	if cfg.Archive == nil {
		return nil, fmt.Errorf("capture: archive is required")
	}
	if cfg.Arbiter == nil {
		return nil, fmt.Errorf("capture: arbiter is required")
	}

	quality := cfg.JPEGQuality
	if quality == 0 {
		quality = raster.DefaultJPEGQuality
	}
	debounce := cfg.SaveDebounce
	if debounce == 0 {
		debounce = DefaultSaveDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		book:     cfg.Book,
		acquirer: cfg.Acquirer,
		archive:  cfg.Archive,
		arbiter:  cfg.Arbiter,
		observer: cfg.Observer,
		quality:  quality,
		saveGate: NewGate(debounce),
		logger:   logger,
		state:    StateIdle,
	}, nil
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentImage returns the image at the decision point: the raw capture with
// any completed rectify/annotate detours applied. Nil before acquisition and
// after cancellation.
func (s *Session) CurrentImage() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CommittedPhoto returns the archived photo ID once the session has reached
// Committed, and "" before that.
func (s *Session) CommittedPhoto() store.PhotoID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// setStateLocked records a transition. Caller holds s.mu and must emit the
// returned transition after unlocking.
func (s *Session) setStateLocked(to State, err error) Transition {
	tr := Transition{From: s.state, To: to, Err: err}
	s.state = to
	return tr
}

// emit delivers transitions to the observer. Must be called without s.mu.
func (s *Session) emit(trs ...Transition) {
	if s.observer == nil {
		return
	}
	for _, tr := range trs {
		s.observer(tr)
	}
}

// Start runs the acquisition stage. The arbiter is told to release speech
// audio strictly before the acquisition UI is invoked. Start blocks until
// the acquirer yields an image or a cancellation.
//
// User cancellation of the acquisition UI moves the session to Cancelled and
// returns nil; hardware failures move it to Cancelled and return the error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		defer s.mu.Unlock()
		return fmt.Errorf("start in state %s: %w", s.state, ErrInvalidState)
	}
	tr := s.setStateLocked(StateAcquiring, nil)
	s.mu.Unlock()
	s.emit(tr)

	// Hard ordering requirement: presenting camera UI while the audio
	// session is mid-teardown causes hardware contention on real devices.
	s.arbiter.ReleaseAudioForCamera()

	raw, err := s.acquirer.Acquire(ctx)
	s.arbiter.ReleaseCamera()

	s.mu.Lock()
	if s.state != StateAcquiring {
		// Cancelled while the acquisition UI was up.
		s.mu.Unlock()
		return nil
	}

	switch {
	case errors.Is(err, ErrAcquireCancelled), errors.Is(err, context.Canceled):
		tr = s.setStateLocked(StateCancelled, nil)
		s.mu.Unlock()
		s.emit(tr)
		return nil
	case err != nil:
		tr = s.setStateLocked(StateCancelled, err)
		s.mu.Unlock()
		s.emit(tr)
		return fmt.Errorf("acquisition failed: %w", err)
	case raw == nil || raw.Image == nil:
		acqErr := errors.New("acquirer returned no image")
		tr = s.setStateLocked(StateCancelled, acqErr)
		s.mu.Unlock()
		s.emit(tr)
		return acqErr
	}

	s.current = raw.Image
	tr = s.setStateLocked(StateAcquired, nil)
	s.mu.Unlock()
	s.emit(tr)
	return nil
}

// BeginRectify opens the crop-adjust detour. Valid only at the decision
// point.
func (s *Session) BeginRectify() error {
	s.mu.Lock()
	if s.state != StateAcquired {
		defer s.mu.Unlock()
		return fmt.Errorf("begin rectify in state %s: %w", s.state, ErrInvalidState)
	}
	tr := s.setStateLocked(StateRectifying, nil)
	s.mu.Unlock()
	s.emit(tr)
	return nil
}

// FinishRectify applies the user-adjusted quad and returns to the decision
// point with the rectified image as the new current image. Rectification is
// best-effort: on a degenerate quad the current image is unchanged.
func (s *Session) FinishRectify(quad raster.NormalizedQuad) error {
	s.mu.Lock()
	if s.state != StateRectifying {
		defer s.mu.Unlock()
		return fmt.Errorf("finish rectify in state %s: %w", s.state, ErrInvalidState)
	}
	img := s.current
	s.mu.Unlock()

	rectified := raster.Rectify(img, quad)

	s.mu.Lock()
	if s.state != StateRectifying {
		s.mu.Unlock()
		return nil
	}
	s.current = rectified
	tr := s.setStateLocked(StateAcquired, nil)
	s.mu.Unlock()
	s.emit(tr)
	return nil
}

// CancelRectify abandons the crop-adjust detour, leaving the current image
// unchanged.
func (s *Session) CancelRectify() error {
	s.mu.Lock()
	if s.state != StateRectifying {
		defer s.mu.Unlock()
		return fmt.Errorf("cancel rectify in state %s: %w", s.state, ErrInvalidState)
	}
	tr := s.setStateLocked(StateAcquired, nil)
	s.mu.Unlock()
	s.emit(tr)
	return nil
}

// BeginAnnotate opens the markup detour over the current image and returns
// the annotation session the screen layer drives (strokes, zoom). Valid only
// at the decision point.
func (s *Session) BeginAnnotate() (*annotate.Session, error) {
	s.mu.Lock()
	if s.state != StateAcquired {
		defer s.mu.Unlock()
		return nil, fmt.Errorf("begin annotate in state %s: %w", s.state, ErrInvalidState)
	}
	s.annot = annotate.NewSession(s.current)
	annot := s.annot
	tr := s.setStateLocked(StateAnnotating, nil)
	s.mu.Unlock()
	s.emit(tr)
	return annot, nil
}

// FinishAnnotate merges the stroke layer onto the current image and returns
// to the decision point.
func (s *Session) FinishAnnotate() error {
	s.mu.Lock()
	if s.state != StateAnnotating {
		defer s.mu.Unlock()
		return fmt.Errorf("finish annotate in state %s: %w", s.state, ErrInvalidState)
	}
	annot := s.annot
	s.mu.Unlock()

	merged := annot.Finalize()

	s.mu.Lock()
	if s.state != StateAnnotating {
		s.mu.Unlock()
		return nil
	}
	s.current = merged
	s.annot = nil
	tr := s.setStateLocked(StateAcquired, nil)
	s.mu.Unlock()
	s.emit(tr)
	return nil
}

// CancelAnnotate abandons the markup detour: no merge happens and the
// current image is unchanged.
func (s *Session) CancelAnnotate() error {
	s.mu.Lock()
	if s.state != StateAnnotating {
		defer s.mu.Unlock()
		return fmt.Errorf("cancel annotate in state %s: %w", s.state, ErrInvalidState)
	}
	s.annot.Cancel()
	s.annot = nil
	tr := s.setStateLocked(StateAcquired, nil)
	s.mu.Unlock()
	s.emit(tr)
	return nil
}

// Save encodes the current image as a JPEG artifact and commits it to the
// archive. On success the session reaches Committed and the photo ID is
// returned.
//
// Duplicate triggers are suppressed: while a save is in flight, after
// commit, and within the debounce window, Save is a no-op returning ("",
// nil). On a store failure the session returns to the decision point with
// the current image retained and the error is returned verbatim for the
// screen layer to surface.
func (s *Session) Save(ctx context.Context) (store.PhotoID, error) {
	s.mu.Lock()
	switch s.state {
	case StatePersisting, StateCommitted:
		s.mu.Unlock()
		return "", nil
	case StateAcquired:
		// Proceed.
	default:
		defer s.mu.Unlock()
		return "", fmt.Errorf("save in state %s: %w", s.state, ErrInvalidState)
	}
	if !s.saveGate.Allow() {
		s.mu.Unlock()
		return "", nil
	}
	img := s.current
	tr := s.setStateLocked(StatePersisting, nil)
	s.mu.Unlock()
	s.emit(tr)

	data, err := raster.EncodeJPEG(img, s.quality)
	var id store.PhotoID
	if err == nil {
		id, err = s.archive.Save(ctx, data, s.book)
	}

	s.mu.Lock()
	if s.state != StatePersisting {
		// Cancelled while the write was in flight: never commit. Remove
		// the artifact if one landed.
		s.mu.Unlock()
		if err == nil && id != "" {
			if derr := s.archive.Delete(context.WithoutCancel(ctx), id); derr != nil {
				s.logger.Warn("failed to remove artifact of cancelled session",
					"photo_id", string(id), "error", derr)
			}
		}
		return "", nil
	}
	if err != nil {
		tr = s.setStateLocked(StateAcquired, err)
		s.mu.Unlock()
		s.emit(tr)
		return "", fmt.Errorf("failed to save photo: %w", err)
	}

	s.committed = id
	tr = s.setStateLocked(StateCommitted, nil)
	s.mu.Unlock()
	s.emit(tr)
	return id, nil
}

// Cancel terminates the session from any non-terminal state, discarding the
// current image and any open annotation without committing anything. Calling
// Cancel on a terminal session is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	if s.annot != nil {
		s.annot.Cancel()
		s.annot = nil
	}
	s.current = nil
	tr := s.setStateLocked(StateCancelled, nil)
	s.mu.Unlock()
	s.emit(tr)
}
