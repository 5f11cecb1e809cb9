// Package codec implements the two on-disk sample formats the catalog has
// ever used: v0, a bare big-endian float32 dump with no header, and v1,
// the current length-prefixed Opus container. Both are read; only v1 is
// written.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"gopkg.in/hraban/opus.v2"

	"oxygen/internal/clip"
)

const (
	// FrameMillis is the Opus frame duration used by the v1 container.
	FrameMillis = 20
	// BitrateBPS is the encoder's target bitrate: 24 kbit/s.
	BitrateBPS = 24000
	// FallbackRate is the rate a clip is resampled to when its own
	// sample_rate is not one Opus accepts.
	FallbackRate = 48000

	channels = 1
)

// DecodeV0 reads a legacy payload: a packed big-endian array of float32
// samples, no header. A trailing partial 4-byte chunk is dropped.
func DecodeV0(payload []byte) []float32 {
	n := len(payload) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = math.Float32frombits(binary.BigEndian.Uint32(payload[i*4 : i*4+4]))
	}
	return samples
}

// EncodeV1 encodes clip into the v1 container. It returns the sample rate
// actually used to encode (the clip's own rate, or 48 kHz if that rate is
// not one Opus accepts) alongside the encoded bytes; callers persist both.
//
// Container layout: 4 bytes big-endian total sample count, followed by
// repeating {len uint16 big-endian, opus packet} records. The final
// partial frame is zero-padded to a full frame before encoding.
func EncodeV1(c clip.Clip) (sampleRate uint32, payload []byte, err error) {
	samples := c.Samples
	rate := c.SampleRate

	enc, encErr := opus.NewEncoder(int(rate), channels, opus.AppAudio)
	if encErr != nil {
		resampled := c.Resample(FallbackRate)
		samples = resampled.Samples
		rate = FallbackRate
		enc, err = opus.NewEncoder(int(rate), channels, opus.AppAudio)
		if err != nil {
			return 0, nil, fmt.Errorf("codec: no usable opus rate for clip %q: %w", c.Name, err)
		}
	}
	if err := enc.SetBitrate(BitrateBPS); err != nil {
		return 0, nil, fmt.Errorf("codec: set bitrate: %w", err)
	}

	frameSize := int(rate) / 1000 * FrameMillis

	outLen := len(samples)
	if outLen < 128 {
		outLen = 128
	}
	out := make([]byte, outLen)

	outI := 4
	binary.BigEndian.PutUint32(out[:4], uint32(len(samples)))

	samplesI := 0
	for samplesI < len(samples) {
		var chunk []float32
		if samplesI+frameSize <= len(samples) {
			chunk = samples[samplesI : samplesI+frameSize]
		} else {
			padded := make([]float32, frameSize)
			copy(padded, samples[samplesI:])
			chunk = padded
		}

		n, encErr := enc.EncodeFloat32(chunk, out[outI+2:])
		if encErr != nil {
			if isBufferTooSmall(encErr) {
				out = growBuffer(out)
				continue
			}
			return 0, nil, fmt.Errorf("codec: opus encode: %w", encErr)
		}

		binary.BigEndian.PutUint16(out[outI:outI+2], uint16(n))
		outI += n + 2
		samplesI += frameSize
	}

	return rate, out[:outI], nil
}

// growBuffer doubles buf's capacity, preserving its existing content.
func growBuffer(buf []byte) []byte {
	grown := make([]byte, len(buf)*2)
	copy(grown, buf)
	return grown
}

func isBufferTooSmall(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "buffer too small")
}

// DecodeV1 decodes a v1 payload encoded at sampleRate. Every packet must
// decode to exactly one frame; any deviation is a decode error. The
// result is truncated to the sample count declared in the header,
// discarding the zero-padding appended to the final frame.
func DecodeV1(sampleRate uint32, payload []byte) ([]float32, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("codec: payload too short for header")
	}
	numSamples := int(binary.BigEndian.Uint32(payload[:4]))

	dec, err := opus.NewDecoder(int(sampleRate), channels)
	if err != nil {
		return nil, fmt.Errorf("codec: new decoder at %d Hz: %w", sampleRate, err)
	}
	frameSize := int(sampleRate) / 1000 * FrameMillis

	samples := make([]float32, 0, numSamples+frameSize)
	bytesI := 4
	for bytesI < len(payload) {
		if bytesI+2 > len(payload) {
			return nil, fmt.Errorf("codec: truncated packet length")
		}
		pktLen := int(binary.BigEndian.Uint16(payload[bytesI : bytesI+2]))
		bytesI += 2
		if bytesI+pktLen > len(payload) {
			return nil, fmt.Errorf("codec: truncated packet body")
		}

		frame := make([]float32, frameSize)
		n, decErr := dec.DecodeFloat32(payload[bytesI:bytesI+pktLen], frame)
		if decErr != nil {
			return nil, fmt.Errorf("codec: opus decode: %w", decErr)
		}
		if n != frameSize {
			return nil, fmt.Errorf("codec: frame produced %d samples, want %d", n, frameSize)
		}

		samples = append(samples, frame...)
		bytesI += pktLen
	}

	if numSamples > len(samples) {
		return nil, fmt.Errorf("codec: declared sample count %d exceeds decoded %d", numSamples, len(samples))
	}
	return samples[:numSamples], nil
}
