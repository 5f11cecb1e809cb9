// Package importer decodes an on-disk audio file into a clip. Import
// probes the file's container from its leading bytes the way a
// Symphonia-style media framework does (Hint by extension, magic bytes
// as ground truth), picks the decoder registered for that container, and
// hands back mono float32 samples at the source sample rate.
//
// Only the WAV container has a registered decoder in this build: no
// general-purpose multi-codec media library (the Go analogue of
// Symphonia) ships in this module's dependency set, so decoding Ogg,
// FLAC or MP3 payloads is out of scope here (see DESIGN.md). Probing
// still recognizes them, so a caller gets a clear "no decoder for this
// container" error instead of a generic parse failure.
package importer

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"oxygen/internal/clip"
	"oxygen/internal/oxerr"
)

// Container names probe can report.
const (
	formatWAV  = "wav"
	formatOgg  = "ogg"
	formatFLAC = "flac"
	formatMP3  = "mp3"
)

// decoders maps a probed container name to the function that can decode
// it. New entries go here as real codec libraries become available.
var decoders = map[string]func(path string, f *os.File) (clip.Clip, error){
	formatWAV: decodeWAV,
}

// Import decodes the audio file at path into a mono clip. The returned
// clip's Date is the file's modification time (UTC), falling back to now
// if the file cannot be stat'ed; the file's creation time is not read.
func Import(path string) (clip.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return clip.Clip{}, fmt.Errorf("importer: open %q: %w", path, err)
	}
	defer f.Close()

	format, err := probe(path, f)
	if err != nil {
		return clip.Clip{}, err
	}

	decode, ok := decoders[format]
	if !ok {
		return clip.Clip{}, fmt.Errorf(
			"importer: %q: container %q detected but no decoder is registered for it in this build: %w",
			path, format, oxerr.ErrInvalidArgument,
		)
	}
	return decode(path, f)
}

// probe sniffs path's container from its leading bytes, falling back to
// the file extension as a hint when the bytes are inconclusive. The
// file's read position is restored to the start before returning so a
// decoder can read it from byte zero.
func probe(path string, f *os.File) (string, error) {
	var magic [12]byte
	n, err := io.ReadFull(f, magic[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("importer: read header of %q: %w", path, err)
	}
	header := magic[:n]

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("importer: rewind %q: %w", path, err)
	}

	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return formatWAV, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return formatOgg, nil
	case bytes.HasPrefix(header, []byte("fLaC")):
		return formatFLAC, nil
	case bytes.HasPrefix(header, []byte("ID3")):
		return formatMP3, nil
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return formatMP3, nil
	}

	// No magic bytes matched (a raw stream, or a container this probe
	// doesn't sniff); fall back to the extension as Symphonia's Hint
	// does when the byte-level probe comes up empty.
	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext != "" {
		return ext, nil
	}
	return "", fmt.Errorf("importer: %q: unrecognized container", path)
}

// decodeWAV decodes a WAV container, de-interleaving to channel 0 and
// normalizing by the source bit depth. The per-packet DecodeError
// tolerance spec.md describes for entropy-coded codecs has no analogue
// here: PCM WAV has no independently-decodable packets to fail.
func decodeWAV(path string, f *os.File) (clip.Clip, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return clip.Clip{}, fmt.Errorf("importer: %q is not a valid WAV file", path)
	}
	dec.ReadInfo()

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return clip.Clip{}, fmt.Errorf("importer: decode %q: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float32(int64(1) << (uint(buf.SourceBitDepth) - 1))
	if buf.SourceBitDepth == 0 {
		scale = math.MaxInt16
	}

	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, float32(buf.Data[i])/scale)
	}

	return clip.Clip{
		Name:       "",
		Date:       creationTime(path, f),
		SampleRate: uint32(buf.Format.SampleRate),
		Samples:    samples,
	}, nil
}

func creationTime(path string, f *os.File) time.Time {
	info, err := f.Stat()
	if err != nil {
		return time.Now().UTC()
	}
	// os.FileInfo has no portable creation time; ModTime is the closest
	// cross-platform signal, matching the fallback-to-now spec already
	// calls for when creation time is unavailable.
	if t := info.ModTime(); !t.IsZero() {
		return t.UTC()
	}
	return time.Now().UTC()
}
