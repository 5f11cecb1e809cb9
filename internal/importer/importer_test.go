package importer

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"oxygen/internal/oxerr"
)

// writeInt16WAV hand-rolls a standard PCM WAV file (format code 1, 16-bit)
// with the given interleaved int16 samples, the format go-audio/wav is
// built to decode.
func writeInt16WAV(t *testing.T, path string, channels, rate int, samples []int16) {
	t.Helper()
	dataSize := uint32(len(samples) * 2)
	byteRate := uint32(rate * channels * 2)
	blockAlign := uint16(channels * 2)

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if _, err := f.Write(header[:]); err != nil {
		t.Fatalf("write header: %v", err)
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(s))
	}
	if _, err := f.Write(buf); err != nil {
		t.Fatalf("write samples: %v", err)
	}
}

func TestImportMonoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	samples := []int16{0, 16384, -16384, 32767, -32768}
	writeInt16WAV(t, path, 1, 48000, samples)

	c, err := Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if c.SampleRate != 48000 {
		t.Fatalf("got rate %d, want 48000", c.SampleRate)
	}
	if len(c.Samples) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(c.Samples), len(samples))
	}
	if c.Samples[1] <= 0 || c.Samples[2] >= 0 {
		t.Fatalf("sign mismatch: got %v, %v", c.Samples[1], c.Samples[2])
	}
}

func TestImportTakesChannelZeroOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// interleaved L,R,L,R: channel 0 should yield [100, 300]
	samples := []int16{100, -100, 300, -300}
	writeInt16WAV(t, path, 2, 44100, samples)

	c, err := Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(c.Samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(c.Samples))
	}
	if c.Samples[0] <= 0 || c.Samples[1] <= 0 {
		t.Fatalf("expected both channel-0 samples positive, got %v", c.Samples)
	}
}

func TestImportRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notawav.wav")
	if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Import(path); err == nil {
		t.Fatal("expected error for invalid WAV file")
	}
}

func TestImportIgnoresExtensionWhenMagicBytesDiffer(t *testing.T) {
	// Named .wav but carries Ogg magic bytes: probe must trust the bytes,
	// not the extension, and report a container with no registered decoder
	// rather than misdetecting it as WAV.
	path := filepath.Join(t.TempDir(), "mislabeled.wav")
	body := append([]byte("OggS"), make([]byte, 32)...)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Import(path)
	if err == nil {
		t.Fatal("expected error for undecoded container")
	}
	if !errors.Is(err, oxerr.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestProbeDetectsCommonContainers(t *testing.T) {
	cases := []struct {
		name   string
		header []byte
		want   string
	}{
		{"wav", append([]byte("RIFF\x00\x00\x00\x00WAVE"), 0), formatWAV},
		{"ogg", []byte("OggS\x00\x00\x00\x00\x00\x00\x00\x00"), formatOgg},
		{"flac", []byte("fLaC\x00\x00\x00\x00\x00\x00\x00\x00"), formatFLAC},
		{"id3-mp3", []byte("ID3\x03\x00\x00\x00\x00\x00\x00\x00"), formatMP3},
		{"frame-sync-mp3", []byte{0xFF, 0xFB, 0x90, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}, formatMP3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "probe.bin")
			if err := os.WriteFile(path, tc.header, 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer f.Close()

			got, err := probe(path, f)
			if err != nil {
				t.Fatalf("probe: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
