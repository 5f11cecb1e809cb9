// Package waveform renders a clip's samples to a bounded min/max envelope
// and rasterizes that envelope to a raw RGBA8 byte buffer, the shape the
// UI layer wires straight into a canvas without decoding an image codec.
package waveform

// Column is the min/max extent of one pixel column's sample window.
type Column struct {
	Min float32
	Max float32
}

// AccentColor is the opaque fill used to paint the envelope. Transparent
// black (the zero value of a byte slice) is left everywhere else.
var AccentColor = [4]byte{0x4f, 0xa8, 0xff, 0xff}

// Render reduces samples[a:b) into pixels columns of (min, max) extents.
// a and b are clamped into [0, len(samples)] and b is forced >= a. A
// column whose window contains no samples is reported as (0, 0).
func Render(samples []float32, a, b float64, pixels int) []Column {
	n := len(samples)
	a = clampFloat(a, 0, float64(n))
	b = clampFloat(b, 0, float64(n))
	if b < a {
		b = a
	}
	if pixels <= 0 {
		return nil
	}

	cols := make([]Column, pixels)
	step := (b - a) / float64(pixels)

	for i := 0; i < pixels; i++ {
		lo := floorToInt(a + step*float64(i))
		hi := floorToInt(a + step*float64(i+1))
		lo = clampInt(lo, 0, n)
		hi = clampInt(hi, 0, n)

		if hi <= lo {
			cols[i] = Column{0, 0}
			continue
		}

		min, max := samples[lo], samples[lo]
		for _, s := range samples[lo+1 : hi] {
			if s < min {
				min = s
			}
			if s > max {
				max = s
			}
		}
		cols[i] = Column{Min: clampFloat32(min, -1, 1), Max: clampFloat32(max, -1, 1)}
	}
	return cols
}

// Rasterize paints cols onto a width*height*4-byte RGBA8 buffer, row-major,
// top-left origin. Each column x paints rows [floor(h*(min+1)/2),
// ceil(h*(max+1)/2)) (half-open, so a (0, 0) column paints nothing) with
// AccentColor; all other pixels stay transparent black. Zero width or
// height yields an empty buffer.
func Rasterize(cols []Column, width, height int) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	buf := make([]byte, width*height*4)
	h := float64(height)

	for x := 0; x < width && x < len(cols); x++ {
		c := cols[x]
		top := int(h * (float64(c.Min) + 1) / 2)
		bot := ceilToInt(h * (float64(c.Max) + 1) / 2)
		top = clampInt(top, 0, height)
		bot = clampInt(bot, 0, height)
		for row := top; row < bot; row++ {
			o := (row*width + x) * 4
			buf[o], buf[o+1], buf[o+2], buf[o+3] = AccentColor[0], AccentColor[1], AccentColor[2], AccentColor[3]
		}
	}
	return buf
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorToInt(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}

func ceilToInt(v float64) int {
	i := int(v)
	if v > 0 && float64(i) != v {
		i++
	}
	return i
}
