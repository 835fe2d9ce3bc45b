package hardware

import (
	"errors"
	"log/slog"
	"testing"
)

// fakeAudioSession records calls in order and can be told to fail.
type fakeAudioSession struct {
	calls         []string
	configureErr  error
	deactivateErr error
}

func (f *fakeAudioSession) ConfigureForRecording() error {
	f.calls = append(f.calls, "configure")
	return f.configureErr
}

func (f *fakeAudioSession) Deactivate() error {
	f.calls = append(f.calls, "deactivate")
	return f.deactivateErr
}

type fakeRecognizer struct {
	cancelled int
}

func (f *fakeRecognizer) Cancel() {
	f.cancelled++
}

func startSpeech(t *testing.T, a *Arbiter) *fakeRecognizer {
	t.Helper()
	rec := &fakeRecognizer{}
	if err := a.AcquireForSpeech(func() (Recognizer, error) { return rec, nil }); err != nil {
		t.Fatalf("AcquireForSpeech failed: %v", err)
	}
	return rec
}

func TestAcquireForSpeech_SetsHolder(t *testing.T) {
	audio := &fakeAudioSession{}
	a := NewArbiter(audio, slog.Default())

	startSpeech(t, a)

	if !a.HoldsAudio() {
		t.Error("speech should hold audio after AcquireForSpeech")
	}
	if len(audio.calls) != 1 || audio.calls[0] != "configure" {
		t.Errorf("audio calls: got %v, want [configure]", audio.calls)
	}
}

func TestAcquireForSpeech_ConfigureFailureIsHard(t *testing.T) {
	audio := &fakeAudioSession{configureErr: errors.New("session busy")}
	a := NewArbiter(audio, slog.Default())

	started := false
	err := a.AcquireForSpeech(func() (Recognizer, error) {
		started = true
		return &fakeRecognizer{}, nil
	})
	if err == nil {
		t.Fatal("expected error when audio configuration fails")
	}
	if !errors.Is(err, ErrAudioUnavailable) {
		t.Errorf("error %v should wrap ErrAudioUnavailable", err)
	}
	if started {
		t.Error("recognition task must not start when configuration fails")
	}
	if a.HoldsAudio() {
		t.Error("holder must not change on configuration failure")
	}
}

func TestAcquireForSpeech_CancelsPriorTask(t *testing.T) {
	audio := &fakeAudioSession{}
	a := NewArbiter(audio, slog.Default())

	first := startSpeech(t, a)
	startSpeech(t, a)

	if first.cancelled != 1 {
		t.Errorf("prior task cancelled %d times, want 1", first.cancelled)
	}
}

func TestReleaseAudioForCamera_DeactivatesSpeechFirst(t *testing.T) {
	audio := &fakeAudioSession{}
	a := NewArbiter(audio, slog.Default())

	rec := startSpeech(t, a)
	a.ReleaseAudioForCamera()

	if rec.cancelled != 1 {
		t.Errorf("recognizer cancelled %d times, want 1", rec.cancelled)
	}
	want := []string{"configure", "deactivate"}
	if len(audio.calls) != len(want) {
		t.Fatalf("audio calls: got %v, want %v", audio.calls, want)
	}
	for i := range want {
		if audio.calls[i] != want[i] {
			t.Fatalf("audio calls: got %v, want %v", audio.calls, want)
		}
	}
	if got := a.Holder(); got != HolderCamera {
		t.Errorf("holder: got %v, want camera", got)
	}
}

func TestReleaseAudioForCamera_DeactivationFailureIsBestEffort(t *testing.T) {
	audio := &fakeAudioSession{deactivateErr: errors.New("teardown hiccup")}
	a := NewArbiter(audio, slog.Default())

	startSpeech(t, a)
	a.ReleaseAudioForCamera()

	if got := a.Holder(); got != HolderCamera {
		t.Errorf("holder after failed deactivation: got %v, want camera", got)
	}
}

func TestReleaseAudioForCamera_WhenIdleSkipsDeactivate(t *testing.T) {
	audio := &fakeAudioSession{}
	a := NewArbiter(audio, slog.Default())

	a.ReleaseAudioForCamera()

	if len(audio.calls) != 0 {
		t.Errorf("no audio calls expected when speech is idle, got %v", audio.calls)
	}
	if got := a.Holder(); got != HolderCamera {
		t.Errorf("holder: got %v, want camera", got)
	}
}

func TestNotifyDeactivated_ListenersRun(t *testing.T) {
	audio := &fakeAudioSession{}
	a := NewArbiter(audio, slog.Default())

	notified := 0
	a.NotifyDeactivated(func() { notified++ })

	startSpeech(t, a)
	a.ReleaseAudioForCamera()
	if notified != 1 {
		t.Errorf("listener ran %d times after camera handover, want 1", notified)
	}

	startSpeech(t, a)
	a.StopListening()
	if notified != 2 {
		t.Errorf("listener ran %d times after StopListening, want 2", notified)
	}
}

func TestReleaseCamera(t *testing.T) {
	a := NewArbiter(&fakeAudioSession{}, slog.Default())

	a.ReleaseAudioForCamera()
	a.ReleaseCamera()

	if got := a.Holder(); got != HolderNone {
		t.Errorf("holder: got %v, want none", got)
	}
}

func TestHolderString(t *testing.T) {
	tests := []struct {
		holder Holder
		want   string
	}{
		{HolderNone, "none"},
		{HolderSpeech, "speech"},
		{HolderCamera, "camera"},
	}
	for _, tt := range tests {
		if got := tt.holder.String(); got != tt.want {
			t.Errorf("Holder(%d).String() = %q, want %q", tt.holder, got, tt.want)
		}
	}
}
