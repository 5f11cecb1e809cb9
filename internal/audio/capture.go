package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"oxygen/internal/clip"
	"oxygen/internal/waveform"
)

// paInputStream abstracts the subset of *portaudio.Stream capture uses, so
// tests can substitute a fake instead of opening a real device.
type paInputStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
}

// RecordHandle is a live capture session. Stop halts the stream and returns
// the finalized clip; until then, the observer methods return a snapshot
// of the in-progress recording.
type RecordHandle struct {
	mu      sync.Mutex
	samples []float32
	name    string
	rate    uint32

	stream  paInputStream
	stopped bool
	done    chan struct{}
}

var _ StreamHandle = (*RecordHandle)(nil)

// Record opens the default input device for backend, negotiates its
// sample rate, and begins appending channel-0 samples to an in-memory
// buffer. The returned handle is live until Stop is called.
func Record(backend Backend, name string) (*RecordHandle, error) {
	dev, err := selectInputDevice(backend)
	if err != nil {
		return nil, fmt.Errorf("audio: select input device: %w", err)
	}

	const framesPerBuffer = 960 // 20ms @ 48kHz; PortAudio adapts actual buffering internally
	rawBuf := make([]float32, framesPerBuffer*int(dev.MaxInputChannels))

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: dev.MaxInputChannels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      dev.DefaultSampleRate,
		FramesPerBuffer: framesPerBuffer,
	}
	if params.Input.Channels < 1 {
		params.Input.Channels = 1
	}

	stream, err := portaudio.OpenStream(params, rawBuf)
	if err != nil {
		return nil, fmt.Errorf("audio: open input stream: %w", err)
	}

	rh := &RecordHandle{
		name:   name,
		rate:   uint32(params.SampleRate),
		stream: stream,
		done:   make(chan struct{}),
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("audio: start input stream: %w", err)
	}

	channels := int(params.Input.Channels)
	go rh.captureLoop(rawBuf, channels)

	return rh, nil
}

func (rh *RecordHandle) captureLoop(rawBuf []float32, channels int) {
	channel0 := make([]float32, 0, len(rawBuf)/channels)
	for {
		select {
		case <-rh.done:
			return
		default:
		}

		if err := rh.stream.Read(); err != nil {
			return
		}

		channel0 = channel0[:0]
		for i := 0; i < len(rawBuf); i += channels {
			channel0 = append(channel0, rawBuf[i])
		}
		nonBlockingAppend(&rh.mu, &rh.samples, channel0)
	}
}

// SampleRate returns the device's negotiated sample rate.
func (rh *RecordHandle) SampleRate() uint32 { return rh.rate }

// Samples returns the number of samples captured so far.
func (rh *RecordHandle) Samples() int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return len(rh.samples)
}

// Time returns the elapsed recording duration in seconds.
func (rh *RecordHandle) Time() float64 {
	return float64(rh.Samples()) / float64(rh.rate)
}

// RenderWaveform renders the live (in-progress) buffer's min/max envelope.
func (rh *RecordHandle) RenderWaveform(a, b float64, pixels int) []waveform.Column {
	rh.mu.Lock()
	snapshot := append([]float32(nil), rh.samples...)
	rh.mu.Unlock()
	return waveform.Render(snapshot, a, b, pixels)
}

// Stop halts the stream and returns the finalized clip. Safe to call more
// than once; later calls return the same samples without touching the
// stream, with Date taken afresh on each call.
func (rh *RecordHandle) Stop() (clip.Clip, error) {
	rh.mu.Lock()
	alreadyStopped := rh.stopped
	rh.stopped = true
	rh.mu.Unlock()

	if !alreadyStopped {
		close(rh.done)
		_ = rh.stream.Stop()
		_ = rh.stream.Close()
	}

	rh.mu.Lock()
	samples := rh.samples
	rh.mu.Unlock()

	return clip.Clip{
		Name:       rh.name,
		Date:       time.Now().UTC(),
		SampleRate: rh.rate,
		Samples:    samples,
	}, nil
}
