package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/rectify"
)

// Config controls frame scheduling.
type Config struct {
	// QueueSize is the number of frames that may wait for the worker.
	QueueSize int `yaml:"queue_size"`

	// DropLateFrames discards frames that arrive while the queue is full.
	// When false the producer blocks instead, which suits file sequences.
	DropLateFrames bool `yaml:"drop_late_frames"`

	// MaxFPS caps how many frames per second the worker processes. Zero means
	// no limit.
	MaxFPS float64 `yaml:"max_fps"`

	// Rectify controls whether detected quads are rectified.
	Rectify bool `yaml:"rectify"`

	// Viewport, when valid, adds a DisplayQuad to each detection.
	Viewport geometry.Viewport `yaml:"-"`
}

// DefaultConfig returns live-capture settings: one queued frame, late frames
// dropped, no rate limit.
func DefaultConfig() Config {
	return Config{
		QueueSize:      1,
		DropLateFrames: true,
		Rectify:        true,
	}
}

// Validate checks the scheduling values.
func (c Config) Validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", c.QueueSize)
	}
	if c.MaxFPS < 0 {
		return fmt.Errorf("max_fps must not be negative, got %g", c.MaxFPS)
	}
	return nil
}

// Result is the outcome for one processed frame.
type Result struct {
	FrameID   uuid.UUID
	Seq       uint64
	Timestamp time.Time

	// Size is the upright frame size in pixels.
	Size geometry.Size

	// Observation is nil when nothing was detected.
	Observation *detection.Observation

	// PixelQuad is the observation in upright frame pixels.
	PixelQuad *geometry.Quad

	// DisplayQuad is the observation in viewport coordinates, if a viewport
	// is configured.
	DisplayQuad *geometry.Quad

	Rectified *rectify.Result

	// Err records a detection or rectification failure for this frame.
	Err error
}

// Stats counts frames through the pipeline.
type Stats struct {
	Received  uint64 `json:"received"`
	Dropped   uint64 `json:"dropped"`
	Detected  uint64 `json:"detected"`
	Rectified uint64 `json:"rectified"`
	Failed    uint64 `json:"failed"`
}

// Pipeline pulls frames from a Source, detects a document in each and
// rectifies it. A single worker processes frames in order.
type Pipeline struct {
	src    Source
	det    detection.Detector
	opts   rectify.Options
	cfg    Config
	logger *slog.Logger

	received  atomic.Uint64
	dropped   atomic.Uint64
	detected  atomic.Uint64
	rectified atomic.Uint64
	failed    atomic.Uint64
}

// New creates a pipeline. opts may be nil for default rectification and
// logger may be nil to discard logs.
func New(src Source, det detection.Detector, cfg Config, opts *rectify.Options, logger *slog.Logger) (*Pipeline, error) {
	if src == nil {
		return nil, errors.New("pipeline needs a frame source")
	}
	if det == nil {
		return nil, errors.New("pipeline needs a detector")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &Pipeline{
		src:    src,
		det:    det,
		cfg:    cfg,
		logger: logger,
	}
	if opts != nil {
		p.opts = *opts
	}
	return p, nil
}

// Stats returns a snapshot of the frame counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Received:  p.received.Load(),
		Dropped:   p.dropped.Load(),
		Detected:  p.detected.Load(),
		Rectified: p.rectified.Load(),
		Failed:    p.failed.Load(),
	}
}

// Run processes frames until the source ends, ctx is cancelled or the source
// fails. Results are sent on out, which Run closes before returning.
// Per-frame failures are reported on the Result and do not stop the run.
func (p *Pipeline) Run(ctx context.Context, out chan<- Result) error {
	defer close(out)

	queue := make(chan *imaging.Frame, p.cfg.QueueSize)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		return p.produce(ctx, queue)
	})

	g.Go(func() error {
		return p.consume(ctx, queue, out)
	})

	err := g.Wait()
	stats := p.Stats()
	p.logger.Info("pipeline stopped",
		"received", stats.Received,
		"dropped", stats.Dropped,
		"detected", stats.Detected,
		"rectified", stats.Rectified,
		"failed", stats.Failed)
	return err
}

func (p *Pipeline) produce(ctx context.Context, queue chan<- *imaging.Frame) error {
	for {
		f, err := p.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		p.received.Add(1)

		if p.cfg.DropLateFrames {
			select {
			case queue <- f:
			default:
				p.dropped.Add(1)
				p.logger.Debug("frame dropped", "seq", f.Seq)
			}
			continue
		}

		select {
		case queue <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pipeline) consume(ctx context.Context, queue <-chan *imaging.Frame, out chan<- Result) error {
	var limiter *rate.Limiter
	if p.cfg.MaxFPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.cfg.MaxFPS), 1)
	}

	for f := range queue {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		res := p.Process(ctx, f)

		select {
		case out <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Process runs detection and rectification on a single frame.
func (p *Pipeline) Process(ctx context.Context, f *imaging.Frame) Result {
	img := f.Upright()
	size := geometry.SizeOf(img.Bounds())

	res := Result{
		FrameID:   f.ID,
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
		Size:      size,
	}
	log := p.logger.With("seq", f.Seq)

	obs, err := p.det.Detect(ctx, img)
	if err != nil {
		res.Err = fmt.Errorf("detection failed: %w", err)
		p.failed.Add(1)
		log.Warn("detection failed", "error", err)
		return res
	}
	if obs == nil {
		log.Debug("no document in frame")
		return res
	}
	p.detected.Add(1)
	res.Observation = obs

	px, err := obs.PixelQuad(size)
	if err != nil {
		res.Err = err
		p.failed.Add(1)
		log.Warn("quad conversion failed", "error", err)
		return res
	}
	res.PixelQuad = &px

	if p.cfg.Viewport.Size.Valid() {
		dq, err := obs.Quad.ToDisplay(size, p.cfg.Viewport, obs.Convention)
		if err == nil {
			res.DisplayQuad = &dq
		}
	}

	if !p.cfg.Rectify {
		log.Debug("document detected", "confidence", obs.Confidence)
		return res
	}

	r, err := rectify.Rectify(img, px, &p.opts)
	if err != nil {
		res.Err = err
		p.failed.Add(1)
		if rectify.Recoverable(err) {
			log.Warn("rectification skipped", "error", err)
		} else {
			log.Error("rectification failed", "error", err)
		}
		return res
	}
	res.Rectified = r
	p.rectified.Add(1)
	log.Debug("document rectified",
		"confidence", obs.Confidence,
		"width", r.Width,
		"height", r.Height)
	return res
}
