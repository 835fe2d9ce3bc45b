// Package pagehint turns raw reading-progress signals into a single best
// candidate page number.
//
// Two producers feed it: the speech subsystem (a black box that listens for
// the reader saying a page number) and an optional OCR pass over a captured
// page photo that looks for the printed folio. Both are noisy and repeat
// themselves, so candidates are debounced and ranked by confidence; the
// surrounding app reads the current best and asks the user to confirm.
package pagehint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Plausible page-number range. Candidates outside it are dropped.
const (
	MinPage = 1
	MaxPage = 20000
)

// DefaultRepeatWindow is how long a repeated identical candidate is
// suppressed.
const DefaultRepeatWindow = 2 * time.Second

// ErrNoPageNumber is returned when a producer found no usable page number.
var ErrNoPageNumber = errors.New("no page number found")

// ErrOCRUnavailable is returned by the OCR producer when the binary was
// built without Tesseract support.
var ErrOCRUnavailable = errors.New("ocr support not built in")

// Source identifies which subsystem produced a candidate.
type Source string

const (
	SourceSpeech Source = "speech"
	SourceOCR    Source = "ocr"
)

// Candidate is one reading-progress suggestion.
type Candidate struct {
	// Page is the suggested page number.
	Page int

	// Source is the producing subsystem.
	Source Source

	// Confidence is the producer's certainty in [0,1].
	Confidence float64
}

// Tracker accumulates candidates from all producers, suppressing implausible
// values and rapid repeats, and keeps the highest-confidence suggestion.
// Safe for concurrent use.
type Tracker struct {
	dedupe *Deduper

	mu      sync.Mutex
	best    Candidate
	hasBest bool
}

// NewTracker creates a tracker with the given repeat-suppression window.
// A non-positive window falls back to DefaultRepeatWindow.
func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultRepeatWindow
	}
	return &Tracker{dedupe: NewDeduper(window)}
}

// Offer submits a candidate. It reports whether the candidate was accepted;
// implausible pages, out-of-range confidences, and repeats of the same
// page/source pair within the window are dropped.
func (t *Tracker) Offer(c Candidate) bool {
	if c.Page < MinPage || c.Page > MaxPage {
		return false
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return false
	}
	if !t.dedupe.Allow(fmt.Sprintf("%s:%d", c.Source, c.Page)) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasBest || c.Confidence >= t.best.Confidence {
		t.best = c
		t.hasBest = true
	}
	return true
}

// Best returns the highest-confidence candidate offered since the last
// Reset, if any.
func (t *Tracker) Best() (Candidate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.best, t.hasBest
}

// Reset clears the tracker for a new reading session.
func (t *Tracker) Reset() {
	t.dedupe.Reset()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.best = Candidate{}
	t.hasBest = false
}

// word is one recognized token with its OCR confidence in [0,1].
type word struct {
	text       string
	confidence float64
}

// bestNumericToken picks the most confident plausible page number from a set
// of recognized tokens. Tokens are stripped of surrounding punctuation
// (folios are often set as "— 123 —" or "[123]").
func bestNumericToken(words []word) (page int, confidence float64, ok bool) {
	for _, w := range words {
		text := strings.Trim(w.text, ".,;:-—–[]()|")
		n, err := strconv.Atoi(text)
		if err != nil || n < MinPage || n > MaxPage {
			continue
		}
		if !ok || w.confidence > confidence {
			page, confidence, ok = n, w.confidence, true
		}
	}
	return page, confidence, ok
}
