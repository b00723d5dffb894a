package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Source produces frames. Next blocks until a frame is available and returns
// io.EOF once the stream has ended. Sources are read by a single goroutine.
type Source interface {
	Next(ctx context.Context) (*imaging.Frame, error)
}

// SliceSource replays frames held in memory.
type SliceSource struct {
	mu     sync.Mutex
	frames []*imaging.Frame
	next   int
}

// NewSliceSource returns a source yielding frames in order. Frames with a zero
// Seq are numbered from 1.
func NewSliceSource(frames ...*imaging.Frame) *SliceSource {
	for i, f := range frames {
		if f.Seq == 0 {
			f.Seq = uint64(i + 1)
		}
	}
	return &SliceSource{frames: frames}
}

// Next returns the next frame or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (*imaging.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

// ChanSource adapts a channel of frames, e.g. fed by a capture callback.
// Closing the channel ends the stream.
type ChanSource struct {
	frames <-chan *imaging.Frame
}

// NewChanSource wraps ch.
func NewChanSource(ch <-chan *imaging.Frame) *ChanSource {
	return &ChanSource{frames: ch}
}

// Next waits for the next frame, io.EOF after close, or ctx cancellation.
func (s *ChanSource) Next(ctx context.Context) (*imaging.Frame, error) {
	select {
	case f, ok := <-s.frames:
		if !ok {
			return nil, io.EOF
		}
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DirSource reads image files from a directory in lexical order, simulating a
// camera that delivers one frame per Interval.
type DirSource struct {
	paths       []string
	next        int
	seq         uint64
	interval    time.Duration
	orientation imaging.Orientation
	last        time.Time
}

// DirOption configures a DirSource.
type DirOption func(*DirSource)

// WithInterval paces frames at least d apart.
func WithInterval(d time.Duration) DirOption {
	return func(s *DirSource) { s.interval = d }
}

// WithOrientation tags every frame with o.
func WithOrientation(o imaging.Orientation) DirOption {
	return func(s *DirSource) { s.orientation = o }
}

// NewDirSource lists the decodable image files in dir.
func NewDirSource(dir string, opts ...DirOption) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	s := &DirSource{}
	for _, e := range entries {
		if e.IsDir() || imaging.FormatName(e.Name()) == "unknown" {
			continue
		}
		s.paths = append(s.paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(s.paths)

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Len returns the number of frames the source will yield.
func (s *DirSource) Len() int {
	return len(s.paths)
}

// Next decodes the next file into a frame.
func (s *DirSource) Next(ctx context.Context) (*imaging.Frame, error) {
	if s.next >= len(s.paths) {
		return nil, io.EOF
	}

	if s.interval > 0 && !s.last.IsZero() {
		if wait := s.interval - time.Since(s.last); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.paths[s.next]
	s.next++

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	s.seq++
	s.last = time.Now()

	f := imaging.FrameFromImage(img)
	f.Seq = s.seq
	f.Orientation = s.orientation
	return f, nil
}
