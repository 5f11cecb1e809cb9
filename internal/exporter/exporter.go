// Package exporter writes a clip to a WAV file: single-channel, 32-bit
// float PCM, at the clip's own sample rate.
package exporter

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"oxygen/internal/clip"
	"oxygen/internal/oxerr"
)

// WriteWAV writes c to path, which must end in ".wav". The file contains
// one channel of 32-bit float samples at c.SampleRate.
func WriteWAV(c clip.Clip, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return fmt.Errorf("exporter: path %q must end in .wav: %w", path, oxerr.ErrInvalidArgument)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("exporter: create %q: %w", path, err)
	}
	defer f.Close()

	const (
		bitsPerSample = 32
		channels      = 1
		fmtCode       = 3 // IEEE float
	)
	dataSize := uint32(len(c.Samples) * 4)
	byteRate := c.SampleRate * channels * bitsPerSample / 8
	blockAlign := uint16(channels * bitsPerSample / 8)

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], fmtCode)
	binary.LittleEndian.PutUint16(header[22:24], channels)
	binary.LittleEndian.PutUint32(header[24:28], c.SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := f.Write(header[:]); err != nil {
		return fmt.Errorf("exporter: write header: %w", err)
	}

	buf := make([]byte, len(c.Samples)*4)
	for i, s := range c.Samples {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(s))
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("exporter: write samples: %w", err)
	}
	return nil
}
