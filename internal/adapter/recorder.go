package adapter

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"log/slog"
	"os"
	"sync"
)

// recorderQueueSize bounds buffered frames. When the encoder lags behind the
// tick loop, frames are dropped rather than blocking the tick handshake.
const recorderQueueSize = 64

// Recorder is a fire-and-forget video side channel. It holds no lock on game
// or model state, may lag or drop frames, and never affects correctness.
type Recorder struct {
	filename string
	delay    int // per-frame delay in 1/100ths of a second

	frames  chan image.Image
	done    chan struct{}
	dropped int

	mu      sync.Mutex
	encoded gif.GIF
	started bool
}

// NewRecorder constructs a Recorder that writes an animated GIF on Stop.
// delayCS is the per-frame delay in hundredths of a second.
func NewRecorder(filename string, delayCS int) *Recorder {
	return &Recorder{
		filename: filename,
		delay:    delayCS,
		frames:   make(chan image.Image, recorderQueueSize),
		done:     make(chan struct{}),
	}
}

// Start marks the recorder live. The encoder itself runs in Run, which the
// caller supervises alongside the session.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.started = true
}

// Run encodes queued frames until Stop closes the queue or ctx is canceled.
// A canceled context stops encoding but is not an error of its own; whatever
// canceled it reports the failure.
func (r *Recorder) Run(ctx context.Context) error {
	defer close(r.done)

	for {
		select {
		case frame, ok := <-r.frames:
			if !ok {
				return nil
			}

			r.encode(frame)
		case <-ctx.Done():
			return nil
		}
	}
}

// Capture enqueues the feed's current frame if the feed can render one.
// It never blocks: on backpressure the frame is dropped.
func (r *Recorder) Capture(feed GameFeed) {
	source, ok := feed.(FrameSource)
	if !ok {
		return
	}

	frame := source.Frame()
	if frame == nil {
		return
	}

	select {
	case r.frames <- frame:
	default:
		r.dropped++
	}
}

// Stop drains pending frames and writes the file. Safe to call once.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()

	if !started {
		return nil
	}

	close(r.frames)
	<-r.done

	if r.dropped > 0 {
		slog.Warn("recorder dropped frames", "dropped", r.dropped)
	}

	if len(r.encoded.Image) == 0 {
		slog.Debug("no frames captured, skipping video file", "file", r.filename)
		return nil
	}

	out, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("create video file: %w", err)
	}

	defer out.Close()

	if err := gif.EncodeAll(out, &r.encoded); err != nil {
		return fmt.Errorf("encode video file: %w", err)
	}

	slog.Info("video saved", "file", r.filename, "frames", len(r.encoded.Image))

	return nil
}

func (r *Recorder) encode(frame image.Image) {
	bounds := frame.Bounds()

	paletted := image.NewPaletted(bounds, palette.Plan9)
	draw.Draw(paletted, bounds, frame, bounds.Min, draw.Src)

	r.encoded.Image = append(r.encoded.Image, paletted)
	r.encoded.Delay = append(r.encoded.Delay, r.delay)
}
