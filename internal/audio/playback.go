package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"oxygen/internal/clip"
	"oxygen/internal/waveform"
)

// paOutputStream abstracts the subset of *portaudio.Stream playback uses.
type paOutputStream interface {
	Start() error
	Stop() error
	Close() error
	Write() error
}

// changedThresholdDivisor sets how far playback must advance before the
// changed callbacks fire again: sample_rate/100 samples, i.e. ~10ms.
const changedThresholdDivisor = 100

// PlayHandle is a live playback session. It implements StreamHandle
// identically to RecordHandle.
type PlayHandle struct {
	mu      sync.Mutex
	samples []float32
	rate    uint32
	time    int64 // current sample index, atomic via mu

	stream   paOutputStream
	channels int
	stopCh   chan struct{}
	stopped  atomic.Bool

	doneFired    atomic.Bool
	doneCBs      []func()
	changedCBs   []func()
	lastChangeAt int64
}

var _ StreamHandle = (*PlayHandle)(nil)

// Play opens the default output device for backend, resamples c once to
// the device's negotiated rate, and begins playback from sample 0.
func Play(c clip.Clip, backend Backend) (*PlayHandle, error) {
	dev, err := selectOutputDevice(backend)
	if err != nil {
		return nil, fmt.Errorf("audio: select output device: %w", err)
	}

	channels := dev.MaxOutputChannels
	if channels < 1 {
		channels = 1
	}

	const framesPerBuffer = 960
	outBuf := make([]float32, framesPerBuffer*channels)

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      dev.DefaultSampleRate,
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, outBuf)
	if err != nil {
		return nil, fmt.Errorf("audio: open output stream: %w", err)
	}

	resampled := c.Resample(uint32(params.SampleRate))

	ph := &PlayHandle{
		samples:  resampled.Samples,
		rate:     uint32(params.SampleRate),
		stream:   stream,
		channels: channels,
		stopCh:   make(chan struct{}),
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("audio: start output stream: %w", err)
	}

	go ph.playbackLoop(outBuf)

	return ph, nil
}

func (ph *PlayHandle) playbackLoop(outBuf []float32) {
	for {
		select {
		case <-ph.stopCh:
			return
		default:
		}

		ph.mu.Lock()
		idx := ph.time
		n := int64(len(ph.samples))
		threshold := int64(ph.rate) / changedThresholdDivisor
		for i := 0; i < len(outBuf); i += ph.channels {
			var s float32
			if idx < n {
				s = ph.samples[idx]
			}
			for ch := 0; ch < ph.channels; ch++ {
				outBuf[i+ch] = s
			}
			idx++
		}
		ph.time = idx
		fireChanged := idx-ph.lastChangeAt >= threshold
		if fireChanged {
			ph.lastChangeAt = idx
		}
		doneNow := idx >= n
		var changedCBs, doneCBs []func()
		if fireChanged {
			changedCBs = append(changedCBs, ph.changedCBs...)
		}
		if doneNow && !ph.doneFired.Load() {
			ph.doneFired.Store(true)
			doneCBs = append(doneCBs, ph.doneCBs...)
		}
		ph.mu.Unlock()

		for _, cb := range changedCBs {
			cb()
		}
		for _, cb := range doneCBs {
			cb()
		}

		if err := ph.stream.Write(); err != nil {
			return
		}
	}
}

// SampleRate returns the device's negotiated sample rate.
func (ph *PlayHandle) SampleRate() uint32 { return ph.rate }

// Samples returns the total number of samples in the (resampled) clip.
func (ph *PlayHandle) Samples() int {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	return len(ph.samples)
}

// Time returns the current playback position in seconds.
func (ph *PlayHandle) Time() float64 {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	return float64(ph.time) / float64(ph.rate)
}

// RenderWaveform renders the (fixed, resampled) clip's min/max envelope.
func (ph *PlayHandle) RenderWaveform(a, b float64, pixels int) []waveform.Column {
	ph.mu.Lock()
	snapshot := ph.samples
	ph.mu.Unlock()
	return waveform.Render(snapshot, a, b, pixels)
}

// OnDone registers a callback that fires once when playback position
// reaches the end. If playback has already ended, it fires immediately.
func (ph *PlayHandle) OnDone(cb func()) {
	ph.mu.Lock()
	already := ph.doneFired.Load()
	if !already {
		ph.doneCBs = append(ph.doneCBs, cb)
	}
	ph.mu.Unlock()
	if already {
		cb()
	}
}

// OnChanged registers a callback that fires every time playback position
// advances past a ~10ms threshold.
func (ph *PlayHandle) OnChanged(cb func()) {
	ph.mu.Lock()
	ph.changedCBs = append(ph.changedCBs, cb)
	ph.mu.Unlock()
}

// Seek sets the playback position to fraction ∈ [0,1] of the clip's
// length and resets the changed-trigger timestamp.
func (ph *PlayHandle) Seek(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	ph.mu.Lock()
	idx := int64(fraction * float64(len(ph.samples)))
	ph.time = idx
	ph.lastChangeAt = idx
	if idx < int64(len(ph.samples)) {
		ph.doneFired.Store(false)
	}
	ph.mu.Unlock()
}

// Stop halts playback and releases the device.
func (ph *PlayHandle) Stop() error {
	if !ph.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(ph.stopCh)
	_ = ph.stream.Stop()
	return ph.stream.Close()
}
