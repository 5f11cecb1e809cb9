// Package spectrogram renders a clip as a short-time Fourier transform
// magnitude raster, colored with the acton perceptual colormap.
package spectrogram

import (
	"math"
	"math/cmplx"

	"oxygen/internal/clip"
)

const (
	// TargetRate is the mono sample rate spectra are computed at.
	TargetRate = 12000
	// FFTSize is the analysis window length in samples.
	FFTSize = 2048
	// Hop is the stride between successive analysis windows, in samples.
	Hop = 200

	minFreq = 1
	maxFreq = 6000

	gainFloorDB = -80
	gainRangeDB = 100
)

// Spectrum is the magnitude of the first FFTSize/2 bins of one analysis
// window.
type Spectrum []float64

// Analyze resamples c to TargetRate mono and computes one Spectrum per hop
// covering the half-open sample range [a, b) of c's *original* indices.
// Windows reading outside [0, len) are zero-padded rather than skipped.
func Analyze(c clip.Clip, a, b int) []Spectrum {
	resampled := c.Resample(TargetRate)
	samples := resampled.Samples

	ratio := float64(TargetRate) / float64(c.SampleRate)
	lo := int(float64(a) * ratio)
	hi := int(float64(b) * ratio)
	if hi < lo {
		hi = lo
	}

	window := hannWindow(FFTSize)

	var spectra []Spectrum
	for start := lo; start < hi; start += Hop {
		frame := make([]complex128, FFTSize)
		for i := 0; i < FFTSize; i++ {
			idx := start + i
			var s float32
			if idx >= 0 && idx < len(samples) {
				s = samples[idx]
			}
			frame[i] = complex(float64(s)*window[i], 0)
		}
		fft(frame)

		mag := make(Spectrum, FFTSize/2)
		for i := range mag {
			mag[i] = cmplx.Abs(frame[i])
		}
		spectra = append(spectra, mag)
	}
	return spectra
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// fft computes the in-place radix-2 Cooley-Tukey FFT of data, whose length
// must be a power of two (FFTSize = 2048 satisfies this).
func fft(data []complex128) {
	n := len(data)
	if n <= 1 {
		return
	}

	// bit-reversal permutation
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			data[i], data[j] = data[j], data[i]
		}
	}

	for length := 2; length <= n; length <<= 1 {
		angle := -2 * math.Pi / float64(length)
		wlen := cmplx.Exp(complex(0, angle))
		for start := 0; start < n; start += length {
			w := complex(1, 0)
			half := length / 2
			for i := 0; i < half; i++ {
				u := data[start+i]
				v := data[start+i+half] * w
				data[start+i] = u + v
				data[start+i+half] = u - v
				w *= wlen
			}
		}
	}
}

// melWarp maps a frequency in Hz to the Mel-like scale used to lay out
// spectrogram rows.
func melWarp(f float64) float64 {
	return 2595 * math.Log10(1+f/700)
}

// Render rasterizes spectra onto a (width, height) RGBA8 buffer, row-major,
// top-left origin, with low frequency at the bottom.
//
// Each column walks its spectrum's bins in increasing frequency order,
// accumulating gain-normalized intensity until the Mel-mapped row advances;
// every row the mapping skips over in that advance is painted with the
// same averaged color rather than left blank, since the Mel warp packs
// many high-frequency bins into each row but spreads the low-frequency
// bins across more rows apiece — without this, interior rows at the low
// end of the range would show through as blank.
func Render(spectra []Spectrum, width, height int) []byte {
	if width <= 0 || height <= 0 || len(spectra) == 0 {
		return nil
	}
	buf := make([]byte, width*height*4)

	pixelsPerSpectrum := float64(width) / float64(len(spectra))

	mLo := melWarp(minFreq)
	mHi := melWarp(maxFreq)

	for specIdx, spec := range spectra {
		xStart := int(float64(specIdx) * pixelsPerSpectrum)
		xEnd := int(float64(specIdx+1) * pixelsPerSpectrum)
		if xEnd <= xStart {
			xEnd = xStart + 1
		}
		if xStart >= width {
			continue
		}
		if xEnd > width {
			xEnd = width
		}

		prevRow := 0
		var sum float64
		var count float64

		paintRows := func(from, to int, s, c float64) {
			if c <= 0 {
				return
			}
			intensity := clamp(s/c, 0, 1)
			colorIdx := int(intensity * 255)
			if colorIdx > 255 {
				colorIdx = 255
			}
			col := acton[colorIdx]
			for row := from; row < to; row++ {
				// low frequency at the bottom: row 0 (low Mel) maps to
				// the bottom pixel row of the top-left-origin raster.
				pixelRow := height - 1 - row
				for x := xStart; x < xEnd; x++ {
					o := (pixelRow*width + x) * 4
					buf[o] = byte(col[0] * 255)
					buf[o+1] = byte(col[1] * 255)
					buf[o+2] = byte(col[2] * 255)
					buf[o+3] = 0xff
				}
			}
		}

		for bin, mag := range spec {
			freq := float64(bin) * TargetRate / FFTSize
			m := melWarp(freq)
			frac := (m - mLo) / (mHi - mLo)
			thisRow := int(math.Round(frac * float64(height)))
			if thisRow < 0 {
				thisRow = 0
			}
			if thisRow > height {
				thisRow = height
			}

			if thisRow > prevRow {
				paintRows(prevRow, thisRow, sum, count)
				prevRow = thisRow
				sum, count = 0, 0
			}

			a := clamp((20*math.Log10(mag+1e-12)-gainFloorDB)/gainRangeDB, 0, 1)
			sum += a
			count++
		}
	}

	return buf
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
