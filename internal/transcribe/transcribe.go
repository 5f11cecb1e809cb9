// Package transcribe runs offline speech-to-text over a clip on a single
// background worker, filtering out low-confidence (hallucinated) segments.
package transcribe

import (
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"oxygen/internal/clip"
)

const (
	targetRate         = 16000
	tickMillis         = 10
	hallucinationFloor = 0.5
	transcribeThreads  = 4
)

// Segment is a filtered, timestamp-converted transcription result.
type Segment struct {
	T0, T1 float64
	Text   string
}

type job struct {
	id    uuid.UUID
	c     clip.Clip
	reply chan<- Result
}

// Result is delivered to a job's reply slot exactly once. JobID lets a
// caller correlate a result with the log lines the worker emitted while
// processing it.
type Result struct {
	JobID    uuid.UUID
	Segments []Segment
	Err      error
}

// AsyncTranscriber owns a single worker goroutine that lazily constructs
// its Model on first use and processes submitted clips FIFO from an
// unbounded queue.
type AsyncTranscriber struct {
	load Loader
	log  *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []job
	closed  bool
}

// New returns an AsyncTranscriber that constructs its model via load on
// the first Submit. The worker goroutine starts immediately, though load
// is not called until a job arrives.
func New(load Loader, log *slog.Logger) *AsyncTranscriber {
	if log == nil {
		log = slog.Default()
	}
	t := &AsyncTranscriber{load: load, log: log}
	t.cond = sync.NewCond(&t.mu)
	go t.run()
	return t
}

// Submit enqueues c for transcription, tagging the job with a fresh
// correlation id so worker log lines can be tied back to this call's
// caller. The result is delivered exactly once on the returned channel
// (buffered, capacity 1).
func (t *AsyncTranscriber) Submit(c clip.Clip) <-chan Result {
	id := uuid.New()
	reply := make(chan Result, 1)
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		reply <- Result{JobID: id, Err: fmt.Errorf("transcribe: transcriber is closed")}
		return reply
	}
	t.queue = append(t.queue, job{id: id, c: c, reply: reply})
	t.mu.Unlock()
	t.log.Debug("transcribe: job queued", "job_id", id, "clip", c.Name)
	t.cond.Signal()
	return reply
}

// Close stops accepting new work: a Submit after Close gets an error
// result at once. Jobs queued before Close still run, and the worker
// exits once the queue drains.
func (t *AsyncTranscriber) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cond.Signal()
}

func (t *AsyncTranscriber) run() {
	var model Model
	for {
		t.mu.Lock()
		for len(t.queue) == 0 && !t.closed {
			t.cond.Wait()
		}
		if len(t.queue) == 0 && t.closed {
			t.mu.Unlock()
			return
		}
		j := t.queue[0]
		t.queue = t.queue[1:]
		t.mu.Unlock()

		if model == nil {
			m, err := t.load()
			if err != nil {
				j.reply <- Result{JobID: j.id, Err: fmt.Errorf("transcribe: load model: %w", err)}
				continue
			}
			model = m
		}

		t.log.Debug("transcribe: job started", "job_id", j.id, "clip", j.c.Name)
		segments, err := t.process(model, j.c)
		t.log.Debug("transcribe: job finished", "job_id", j.id, "segments", len(segments), "err", err)
		j.reply <- Result{JobID: j.id, Segments: segments, Err: err}
	}
}

func (t *AsyncTranscriber) process(model Model, c clip.Clip) ([]Segment, error) {
	resampled := c.Resample(targetRate)

	raw, err := model.Transcribe(resampled.Samples)
	if err != nil {
		return nil, fmt.Errorf("transcribe: model: %w", err)
	}

	var out []Segment
	for _, seg := range raw {
		if meanProb(seg.Tokens) < hallucinationFloor {
			continue
		}
		if !utf8.ValidString(seg.Text) {
			t.log.Warn("transcribe: dropping segment with invalid utf8")
			continue
		}
		out = append(out, Segment{
			T0:   float64(seg.T0) * tickMillis / 1000,
			T1:   float64(seg.T1) * tickMillis / 1000,
			Text: seg.Text,
		})
	}
	return out, nil
}

func meanProb(tokens []Token) float32 {
	if len(tokens) == 0 {
		return 0
	}
	var sum float32
	for _, t := range tokens {
		sum += t.MeanProb
	}
	return sum / float32(len(tokens))
}
