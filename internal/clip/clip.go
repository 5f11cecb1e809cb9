// Package clip owns the Clip value type and the linear-interpolation
// resampler shared by every other component: the codec resamples to a
// rate Opus accepts, playback resamples to the output device's rate, the
// spectrogram resamples to 12kHz, and transcription resamples to 16kHz.
package clip

import "time"

// Clip is a named mono PCM recording plus metadata. It is the central
// entity of the catalog; see package store for persistence and package
// audio for the live (capture/playback) handles.
type Clip struct {
	// ID is absent until the clip is first saved, after which it is
	// immutable for the lifetime of the row.
	ID *int64

	Name       string
	Date       time.Time
	SampleRate uint32

	// Samples are mono, nominally in [-1, 1]. Values outside that range
	// may exist (e.g. straight off a hot mic) but renderers clamp them.
	Samples []float32
}

// Meta is the {id, name, date} projection used for listing.
type Meta struct {
	ID   int64
	Name string
	Date time.Time
}

// Segment is one transcription result: a time range in seconds and the
// recognized text.
type Segment struct {
	Start, End float64
	Text       string
}

// DisplayColumn is a {min, max} pair for one waveform pixel column.
type DisplayColumn struct {
	Min, Max float32
}

// Clone returns a deep copy of c.
func (c Clip) Clone() Clip {
	samples := make([]float32, len(c.Samples))
	copy(samples, c.Samples)
	var id *int64
	if c.ID != nil {
		v := *c.ID
		id = &v
	}
	return Clip{ID: id, Name: c.Name, Date: c.Date, SampleRate: c.SampleRate, Samples: samples}
}

// Resample returns a new clip whose samples are produced by linear
// interpolation from c's samples at c.SampleRate to targetRate. If
// targetRate == c.SampleRate, Resample returns a clone (§ spec 4.1,
// "Resample identity").
//
// Output length is floor(len(samples) * target / source). The first two
// samples seed the interpolator; an empty or single-sample input yields
// an empty buffer. Reads past the last sample are treated as zero, so
// the interpolator never extrapolates beyond the recorded signal.
func (c Clip) Resample(targetRate uint32) Clip {
	if targetRate == c.SampleRate {
		return c.Clone()
	}

	n := len(c.Samples)
	outLen := n * int(targetRate) / int(c.SampleRate)

	out := Clip{
		ID:         c.ID,
		Name:       c.Name,
		Date:       c.Date,
		SampleRate: targetRate,
		Samples:    make([]float32, 0, outLen),
	}

	if n < 2 {
		return out
	}

	ratio := float64(c.SampleRate) / float64(targetRate)
	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))

		a := sampleAt(c.Samples, idx)
		b := sampleAt(c.Samples, idx+1)
		out.Samples = append(out.Samples, a+(b-a)*frac)
	}

	return out
}

// sampleAt returns samples[i], or 0 past the end of the buffer.
func sampleAt(samples []float32, i int) float32 {
	if i < 0 || i >= len(samples) {
		return 0
	}
	return samples[i]
}

// Seconds returns the clip's duration.
func (c Clip) Seconds() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}
