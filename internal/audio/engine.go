// Package audio drives capture and playback through PortAudio: opening the
// default device for the chosen Backend, converting whatever sample format
// the device negotiates to mono float32, and exposing a small observer
// surface (sample rate, elapsed samples/time, waveform snapshot) shared by
// both directions.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"oxygen/internal/waveform"
)

// Backend selects which PortAudio device set a stream opens against.
type Backend int

const (
	// BackendDefault opens the platform's default input/output device.
	BackendDefault Backend = iota
	// BackendPro opens the device reporting the lowest default latency,
	// the closest PortAudio can get to a dedicated low-latency host API
	// (JACK, ASIO) without a compile-time feature flag.
	BackendPro
)

// Device describes one audio device available for capture or playback.
type Device struct {
	ID   int
	Name string
}

// StreamHandle is the observer surface common to a live RecordHandle and a
// live PlayHandle. Implementations must treat every value as a snapshot:
// the audio callback may update the underlying state concurrently.
type StreamHandle interface {
	SampleRate() uint32
	Samples() int
	Time() float64
	RenderWaveform(a, b float64, pixels int) []waveform.Column
}

// ListInputDevices returns devices that can be opened for capture.
func ListInputDevices() ([]Device, error) {
	return listDevices(func(d *portaudio.DeviceInfo) bool { return d.MaxInputChannels > 0 })
}

// ListOutputDevices returns devices that can be opened for playback.
func ListOutputDevices() ([]Device, error) {
	return listDevices(func(d *portaudio.DeviceInfo) bool { return d.MaxOutputChannels > 0 })
}

func listDevices(match func(*portaudio.DeviceInfo) bool) ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audio: list devices: %w", err)
	}
	var out []Device
	for i, d := range devices {
		if match(d) {
			out = append(out, Device{ID: i, Name: d.Name})
		}
	}
	return out, nil
}

// selectInputDevice resolves the device a Backend opens for capture.
func selectInputDevice(backend Backend) (*portaudio.DeviceInfo, error) {
	return selectDevice(backend, true)
}

// selectOutputDevice resolves the device a Backend opens for playback.
func selectOutputDevice(backend Backend) (*portaudio.DeviceInfo, error) {
	return selectDevice(backend, false)
}

func selectDevice(backend Backend, input bool) (*portaudio.DeviceInfo, error) {
	if backend == BackendDefault {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audio: list devices: %w", err)
	}

	var best *portaudio.DeviceInfo
	var bestLatency time.Duration
	for _, d := range devices {
		channels := d.MaxInputChannels
		latency := d.DefaultLowInputLatency
		if !input {
			channels = d.MaxOutputChannels
			latency = d.DefaultLowOutputLatency
		}
		if channels <= 0 {
			continue
		}
		if best == nil || latency < bestLatency {
			best = d
			bestLatency = latency
		}
	}
	if best == nil {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}
	return best, nil
}

// nonBlockingAppend appends src to *dst under mu's try-lock, dropping src
// entirely if the lock is already held. Used by the capture callback so a
// slow consumer never blocks the realtime audio thread; an audio under-run
// is preferable to a stall.
func nonBlockingAppend(mu *sync.Mutex, dst *[]float32, src []float32) {
	if !mu.TryLock() {
		return
	}
	defer mu.Unlock()
	*dst = append(*dst, src...)
}
