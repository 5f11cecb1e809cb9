package transcribe

// Token is one recognized unit with its mean probability, used for the
// hallucination filter.
type Token struct {
	MeanProb float32
}

// RawSegment is a model's raw output for one segment, before the
// probability filter, UTF-8 check, and tick-to-seconds conversion are
// applied.
type RawSegment struct {
	// T0, T1 are start/end timestamps in the model's native 10ms ticks.
	T0, T1 int64
	Text   string
	Tokens []Token
}

// Model is the speech-to-text backend AsyncTranscriber drives. It is
// deliberately opaque: no Go binding for an offline speech model exists in
// this module's dependency set, so callers inject one (a real one in
// production, a fake in tests) rather than AsyncTranscriber loading a
// concrete implementation itself.
type Model interface {
	// Transcribe runs greedy decoding over samples (16kHz mono float32)
	// with 4 worker threads, English language hint, token timestamps on,
	// translation off — mirroring the FullParams the upstream analyzer
	// configures before calling into the model.
	Transcribe(samples []float32) ([]RawSegment, error)
}

// Loader lazily constructs a Model on first use, so the (potentially
// large) embedded model is never loaded unless a transcription is
// requested.
type Loader func() (Model, error)
