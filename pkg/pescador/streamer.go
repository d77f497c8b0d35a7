package pescador

import (
	"fmt"
	"slices"
)

// Streamable is the minimal capability the multiplexer consumes: produce a
// fresh lazy stream on demand. Both *Streamer and *Mux satisfy it, which is
// what lets multiplexers nest.
type Streamable[T any] interface {
	Stream() Stream[T]
}

// Streamer wraps a source so it can be iterated repeatedly. Every activation
// starts a fresh traversal of the source; state from a previous iteration
// does not leak into the next.
type Streamer[T any] struct {
	source func() Stream[T]
	live   *streamHandle
}

// streamHandle marks one activation. The Streamer keeps a reference to its
// current handle so composite collaborators can observe exhaustion.
type streamHandle struct {
	done bool
}

// NewStreamer wraps a source. Accepted shapes:
//
//   - func() Stream[T]: a factory invoked once per activation. Factories
//     with bound arguments are closures over this shape.
//   - []T: a concrete slice, re-iterated from the beginning each activation.
//     The slice is copied at construction.
//   - Streamable[T]: an existing Streamer or Mux to wrap.
//
// Anything else, including a nil factory or a raw single-use Stream, fails
// with ErrBadSource.
func NewStreamer[T any](source any) (*Streamer[T], error) {
	switch src := source.(type) {
	case func() Stream[T]:
		if src == nil {
			return nil, fmt.Errorf("%w: nil factory", ErrBadSource)
		}
		return &Streamer[T]{source: src}, nil
	case []T:
		items := slices.Clone(src)
		return &Streamer[T]{source: func() Stream[T] { return FromSlice(items) }}, nil
	case Streamable[T]:
		if src == nil {
			return nil, fmt.Errorf("%w: nil streamable", ErrBadSource)
		}
		return &Streamer[T]{source: src.Stream}, nil
	case Stream[T]:
		return nil, fmt.Errorf("%w: a bare stream is single-use, wrap a factory instead", ErrBadSource)
	default:
		return nil, fmt.Errorf("%w: unsupported source type %T", ErrBadSource, source)
	}
}

// MustStreamer is like NewStreamer but panics on a bad source. Intended for
// sources known valid at compile time.
func MustStreamer[T any](source any) *Streamer[T] {
	s, err := NewStreamer[T](source)
	if err != nil {
		panic(err)
	}
	return s
}

// Stream activates the Streamer and returns a fresh lazy sequence. The
// underlying source is not invoked until the first pull. Starting a new
// sequence detaches any previous one; at most one live sequence exists at a
// time.
func (s *Streamer[T]) Stream() Stream[T] {
	handle := &streamHandle{}
	s.live = handle

	var inner Stream[T]
	return func() (T, error) {
		var zero T
		if handle.done {
			return zero, EOS
		}
		if inner == nil {
			inner = s.source()
			if inner == nil {
				s.deactivate(handle)
				return zero, fmt.Errorf("%w: factory returned a nil stream", ErrBadSource)
			}
		}
		item, err := inner()
		if err != nil {
			s.deactivate(handle)
		}
		return item, err
	}
}

// Active reports whether the Streamer currently holds a live sequence.
func (s *Streamer[T]) Active() bool {
	return s.live != nil
}

func (s *Streamer[T]) deactivate(handle *streamHandle) {
	handle.done = true
	if s.live == handle {
		s.live = nil
	}
}

// Iterate returns a fresh lazy sequence honoring WithMaxIter and WithCycle.
func (s *Streamer[T]) Iterate(opts ...IterateOption) Stream[T] {
	return iterate[T](s, opts)
}

// Cycle iterates the source endlessly, restarting it on exhaustion. Combine
// with WithMaxIter for a bounded cycle.
func (s *Streamer[T]) Cycle(opts ...IterateOption) Stream[T] {
	return s.Iterate(append(opts, WithCycle())...)
}

// IterateOption configures a single call to Iterate, Cycle, or Tuples.
type IterateOption func(*iterateConfig)

type iterateConfig struct {
	maxIter int64
	hasMax  bool
	cycle   bool
}

// WithMaxIter caps the sequence at n elements. Panics if n is negative.
func WithMaxIter(n int64) IterateOption {
	if n < 0 {
		panic(fmt.Sprintf("pescador: max iterations must not be negative, got %d", n))
	}
	return func(c *iterateConfig) {
		c.maxIter = n
		c.hasMax = true
	}
}

// WithCycle restarts the source on exhaustion instead of terminating.
func WithCycle() IterateOption {
	return func(c *iterateConfig) {
		c.cycle = true
	}
}

// iterate builds the shared Iterate behavior over any Streamable. When
// cycling, a restart that yields nothing ends the sequence rather than
// spinning.
func iterate[T any](src Streamable[T], opts []IterateOption) Stream[T] {
	var cfg iterateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	current := src.Stream()
	produced := false
	out := Stream[T](func() (T, error) {
		for {
			item, err := current()
			if err == nil {
				produced = true
				return item, nil
			}
			var zero T
			if !isEOS(err) {
				return zero, err
			}
			if !cfg.cycle || !produced {
				return zero, EOS
			}
			current = src.Stream()
			produced = false
		}
	})
	if cfg.hasMax {
		out = Take[T](cfg.maxIter)(out)
	}
	return out
}
