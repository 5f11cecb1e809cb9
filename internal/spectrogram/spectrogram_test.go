package spectrogram

import (
	"math"
	"testing"
	"time"

	"oxygen/internal/clip"
)

func sineClip(rate uint32, seconds, freq float64) clip.Clip {
	n := int(float64(rate) * seconds)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	}
	return clip.Clip{Name: "tone", Date: time.Now(), SampleRate: rate, Samples: samples}
}

func TestAnalyzeProducesExpectedBinCount(t *testing.T) {
	c := sineClip(48000, 1, 440)
	spectra := Analyze(c, 0, len(c.Samples))
	if len(spectra) == 0 {
		t.Fatal("expected at least one spectrum")
	}
	for _, s := range spectra {
		if len(s) != FFTSize/2 {
			t.Fatalf("got %d bins, want %d", len(s), FFTSize/2)
		}
	}
}

func TestAnalyzeTonePeaksNearExpectedBin(t *testing.T) {
	const freq = 1000.0
	c := sineClip(48000, 1, freq)
	spectra := Analyze(c, 0, len(c.Samples))

	// pick a spectrum safely inside the signal, away from zero-padded edges
	mid := spectra[len(spectra)/2]

	peakBin := 0
	for i, v := range mid {
		if v > mid[peakBin] {
			peakBin = i
		}
	}
	wantBin := int(math.Floor(freq * FFTSize / TargetRate))
	if diff := peakBin - wantBin; diff < -2 || diff > 2 {
		t.Fatalf("peak at bin %d, want near %d", peakBin, wantBin)
	}
}

func TestRenderEmptySpectraYieldsNil(t *testing.T) {
	if got := Render(nil, 100, 100); got != nil {
		t.Fatalf("expected nil for no spectra, got %d bytes", len(got))
	}
}

func TestRenderZeroDimensionsYieldsNil(t *testing.T) {
	spectra := []Spectrum{make(Spectrum, FFTSize/2)}
	if got := Render(spectra, 0, 10); got != nil {
		t.Fatal("expected nil for zero width")
	}
	if got := Render(spectra, 10, 0); got != nil {
		t.Fatal("expected nil for zero height")
	}
}

func TestRenderBufferSize(t *testing.T) {
	c := sineClip(48000, 0.5, 440)
	spectra := Analyze(c, 0, len(c.Samples))
	buf := Render(spectra, 64, 32)
	if len(buf) != 64*32*4 {
		t.Fatalf("got %d bytes, want %d", len(buf), 64*32*4)
	}
}

func TestRenderFillsEveryInteriorRow(t *testing.T) {
	// A single loud, broadband spectrum should paint every row in its
	// column: the Mel warp spreads the low-frequency bins over more rows
	// per bin than the high-frequency ones, so the low-row end is exactly
	// where row-skipping (if the renderer only painted rows a bin's exact
	// mapping landed on) would leave gaps. With gap-filling, no row in the
	// column should be left fully transparent.
	spec := make(Spectrum, FFTSize/2)
	for i := range spec {
		spec[i] = 1.0
	}
	buf := Render([]Spectrum{spec}, 1, 64)

	for row := 0; row < 64; row++ {
		o := row * 4
		if buf[o+3] == 0 {
			t.Fatalf("row %d was left blank (alpha 0), expected gap-filled coverage", row)
		}
	}
}

func TestMelWarpMonotonic(t *testing.T) {
	prev := melWarp(minFreq)
	for f := 100.0; f <= maxFreq; f += 100 {
		cur := melWarp(f)
		if cur <= prev {
			t.Fatalf("mel warp not monotonic at %v Hz: %v <= %v", f, cur, prev)
		}
		prev = cur
	}
}
