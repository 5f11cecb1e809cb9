// Package uistate is the host-binding surface: a thin stateful struct that
// delegates every operation to the audio/store/waveform/spectrogram/
// transcribe packages, the shape rustyguts-bken/client/app.go uses for its
// own App struct ("keep this struct thin — delegate to Transport and
// AudioEngine"). No Wails runtime is embedded here — there is no frontend
// in this repo to bind to — but the methods are plain Go so a future host
// binding can wrap them directly.
package uistate

import (
	"fmt"
	"log/slog"
	"sync"

	"oxygen/internal/audio"
	"oxygen/internal/clip"
	"oxygen/internal/oxerr"
	"oxygen/internal/spectrogram"
	"oxygen/internal/store"
	"oxygen/internal/transcribe"
	"oxygen/internal/waveform"
)

// Tab selects which view the host UI is showing.
type Tab int

const (
	TabRecord Tab = iota
	TabClip
)

// UiState is the stateful surface an embedding UI drives.
type UiState struct {
	mu sync.Mutex

	store       *store.Store
	transcriber *transcribe.AsyncTranscriber
	backend     audio.Backend
	log         *slog.Logger

	tab       Tab
	current   *clip.Clip
	recording *audio.RecordHandle
	playing   *audio.PlayHandle

	lastDeleted *clip.Clip // single-slot undo, per spec's "soft last-deleted slot"
}

// New returns a UiState bound to st, using backend for audio and tr for
// transcription requests.
func New(st *store.Store, backend audio.Backend, tr *transcribe.AsyncTranscriber, log *slog.Logger) *UiState {
	if log == nil {
		log = slog.Default()
	}
	return &UiState{store: st, backend: backend, transcriber: tr, log: log, tab: TabRecord}
}

// SetTab switches between the recording and clip views.
func (u *UiState) SetTab(t Tab) {
	u.mu.Lock()
	u.tab = t
	u.mu.Unlock()
}

// Tab returns the currently selected tab.
func (u *UiState) Tab() Tab {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.tab
}

// StartRecording begins a capture session named name and switches to the
// record tab.
func (u *UiState) StartRecording(name string) error {
	rh, err := audio.Record(u.backend, name)
	if err != nil {
		return fmt.Errorf("uistate: start recording: %w", err)
	}
	u.mu.Lock()
	u.recording = rh
	u.tab = TabRecord
	u.mu.Unlock()
	return nil
}

// StopRecording halts the active recording, saves it to the catalog, and
// selects it as the current clip.
func (u *UiState) StopRecording() (clip.Meta, error) {
	u.mu.Lock()
	rh := u.recording
	u.recording = nil
	u.mu.Unlock()

	if rh == nil {
		return clip.Meta{}, fmt.Errorf("uistate: no active recording")
	}
	c, err := rh.Stop()
	if err != nil {
		return clip.Meta{}, fmt.Errorf("uistate: stop recording: %w", err)
	}
	if err := u.store.Save(&c); err != nil {
		return clip.Meta{}, err
	}

	u.mu.Lock()
	u.current = &c
	u.tab = TabClip
	u.mu.Unlock()

	return clip.Meta{ID: *c.ID, Name: c.Name, Date: c.Date}, nil
}

// SelectClip loads name from the catalog as the current clip and switches
// to the clip tab.
func (u *UiState) SelectClip(name string) error {
	c, err := u.store.Load(name)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("uistate: select clip %q: %w", name, oxerr.ErrNotFound)
	}
	u.mu.Lock()
	u.current = c
	u.tab = TabClip
	u.mu.Unlock()
	return nil
}

// Play starts playback of the current clip.
func (u *UiState) Play() error {
	u.mu.Lock()
	c := u.current
	u.mu.Unlock()
	if c == nil {
		return fmt.Errorf("uistate: play: no clip selected")
	}

	ph, err := audio.Play(*c, u.backend)
	if err != nil {
		return fmt.Errorf("uistate: play: %w", err)
	}
	u.mu.Lock()
	u.playing = ph
	u.mu.Unlock()
	return nil
}

// StopPlayback halts any active playback.
func (u *UiState) StopPlayback() error {
	u.mu.Lock()
	ph := u.playing
	u.playing = nil
	u.mu.Unlock()
	if ph == nil {
		return nil
	}
	return ph.Stop()
}

// Seek moves active playback to fraction ∈ [0,1] of the clip.
func (u *UiState) Seek(fraction float64) error {
	u.mu.Lock()
	ph := u.playing
	u.mu.Unlock()
	if ph == nil {
		return fmt.Errorf("uistate: seek: no active playback")
	}
	ph.Seek(fraction)
	return nil
}

// Delete removes name from the catalog, keeping a single-slot undo copy.
func (u *UiState) Delete(name string) error {
	c, err := u.store.Load(name)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("uistate: delete %q: %w", name, oxerr.ErrNotFound)
	}
	if err := u.store.Delete(name); err != nil {
		return err
	}
	u.mu.Lock()
	u.lastDeleted = c
	u.mu.Unlock()
	return nil
}

// UndoDelete restores the last deleted clip, if any, as a new catalog row
// (it is assigned a fresh id — the original id is not reused, consistent
// with id immutability: a restored clip is a new row, not a resurrection
// of the deleted one).
func (u *UiState) UndoDelete() (clip.Meta, error) {
	u.mu.Lock()
	c := u.lastDeleted
	u.lastDeleted = nil
	u.mu.Unlock()

	if c == nil {
		return clip.Meta{}, fmt.Errorf("uistate: undo: nothing to restore")
	}
	restored := c.Clone()
	restored.ID = nil
	if err := u.store.Save(&restored); err != nil {
		return clip.Meta{}, err
	}
	return clip.Meta{ID: *restored.ID, Name: restored.Name, Date: restored.Date}, nil
}

// RequestTranscription submits the current clip for transcription.
func (u *UiState) RequestTranscription() (<-chan transcribe.Result, error) {
	u.mu.Lock()
	c := u.current
	u.mu.Unlock()
	if c == nil {
		return nil, fmt.Errorf("uistate: transcribe: no clip selected")
	}
	return u.transcriber.Submit(*c), nil
}

// RasterMode selects which visualization RenderRaster produces.
type RasterMode int

const (
	RasterWaveform RasterMode = iota
	RasterSpectrogram
)

// RenderRaster renders an RGBA8 raster in the requested mode. Waveform
// mode draws the live recording, active playback, or current selected
// clip — whichever is active, in that priority order. Spectrogram mode
// always draws the current selected clip.
func (u *UiState) RenderRaster(mode RasterMode, a, b float64, width, height int) ([]byte, error) {
	u.mu.Lock()
	rh, ph, c := u.recording, u.playing, u.current
	u.mu.Unlock()

	var handle audio.StreamHandle
	switch {
	case rh != nil:
		handle = rh
	case ph != nil:
		handle = ph
	}

	switch mode {
	case RasterWaveform:
		if handle != nil {
			cols := handle.RenderWaveform(a, b, width)
			return waveform.Rasterize(cols, width, height), nil
		}
		if c == nil {
			return nil, fmt.Errorf("uistate: render waveform: no clip selected")
		}
		cols := waveform.Render(c.Samples, a, b, width)
		return waveform.Rasterize(cols, width, height), nil
	case RasterSpectrogram:
		if c == nil {
			return nil, fmt.Errorf("uistate: render spectrogram: no clip selected")
		}
		spectra := spectrogram.Analyze(*c, int(a), int(b))
		return spectrogram.Render(spectra, width, height), nil
	default:
		return nil, fmt.Errorf("uistate: unknown raster mode %d", mode)
	}
}
