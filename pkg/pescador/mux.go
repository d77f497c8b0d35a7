package pescador

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// DefaultRate is the default rate: an active substream serves a budget of
// 1 + Poisson(DefaultRate) samples before it is retired and its slot refilled.
const DefaultRate = 256.0

// unlimitedBudget marks a slot that is only ever retired by exhaustion.
const unlimitedBudget = -1

// Mux multiplexes many Streamables into one stream. It keeps an active pool
// of up to k substreams, samples from them by weight, and refreshes them on
// exhaustion according to policy. A Mux is itself a Streamable, so muxes
// nest.
type Mux[T any] struct {
	children []Streamable[T]
	k        int
	weights  []float64

	rate            float64
	unlimitedRate   bool
	withReplacement bool
	revive          bool
	pruneEmpty      bool

	rng *rand.Rand
}

// MuxOption configures a Mux during construction.
type MuxOption func(*muxConfig)

type muxConfig struct {
	weights         []float64
	rate            float64
	unlimitedRate   bool
	withReplacement bool
	revive          bool
	pruneEmpty      bool
	randomState     any
}

// WithWeights sets per-child sampling weights. Length must match the number
// of children; entries must be non-negative with a positive sum. Defaults to
// uniform.
func WithWeights(weights []float64) MuxOption {
	return func(c *muxConfig) {
		c.weights = weights
	}
}

// WithReplacement controls whether a child may occupy several slots at once
// and be re-activated after retiring. Default: true.
func WithReplacement(enabled bool) MuxOption {
	return func(c *muxConfig) {
		c.withReplacement = enabled
	}
}

// WithRate sets the slot budget: the number of samples drawn from a
// substream before its slot is retired. Budgets are drawn as
// 1 + Poisson(rate) from the Mux's own generator, so their mean is rate+1
// and a finite rate never produces an empty slot. Default: DefaultRate.
//
// Panics if rate is not positive; use WithUnlimitedRate to disable budgets.
func WithRate(rate float64) MuxOption {
	if rate <= 0 {
		panic(fmt.Sprintf("pescador: rate must be positive, got %v", rate))
	}
	return func(c *muxConfig) {
		c.rate = rate
		c.unlimitedRate = false
	}
}

// WithUnlimitedRate removes slot budgets: substreams are only retired when
// they exhaust.
func WithUnlimitedRate() MuxOption {
	return func(c *muxConfig) {
		c.unlimitedRate = true
	}
}

// WithRevive allows retired children to be re-activated later. Only
// meaningful without replacement. Default: false.
func WithRevive(enabled bool) MuxOption {
	return func(c *muxConfig) {
		c.revive = enabled
	}
}

// WithPruneEmptyStreams controls whether a substream that exhausts without
// producing a single sample removes its child from future activation.
// Default: true.
func WithPruneEmptyStreams(enabled bool) MuxOption {
	return func(c *muxConfig) {
		c.pruneEmpty = enabled
	}
}

// WithRandomState injects the randomness driving all draws. Accepted values:
// an int or int64 seed, an existing *rand.Rand, or nil for an ambient-seeded
// generator. Anything else fails construction with ErrBadRandomState.
func WithRandomState(state any) MuxOption {
	return func(c *muxConfig) {
		c.randomState = state
	}
}

// NewMux composes children into a single weighted stream drawing from up to
// k substreams at a time. Without replacement, k is capped at the number of
// children.
func NewMux[T any](children []Streamable[T], k int, opts ...MuxOption) (*Mux[T], error) {
	cfg := muxConfig{
		rate:            DefaultRate,
		withReplacement: true,
		pruneEmpty:      true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(children) == 0 {
		return nil, fmt.Errorf("%w", ErrEmptyMux)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBadPoolSize, k)
	}

	weights := cfg.weights
	if weights == nil {
		weights = make([]float64, len(children))
		for i := range weights {
			weights[i] = 1.0
		}
	} else {
		if len(weights) != len(children) {
			return nil, fmt.Errorf("%w: %d weights for %d children",
				ErrShapeMismatch, len(weights), len(children))
		}
		weights = append([]float64(nil), weights...)
		sum := 0.0
		for _, w := range weights {
			if w < 0 {
				return nil, fmt.Errorf("%w: negative weight %v", ErrDegenerateWeights, w)
			}
			sum += w
		}
		if sum <= 0 {
			return nil, fmt.Errorf("%w: all weights are zero", ErrDegenerateWeights)
		}
	}

	rng, err := newRand(cfg.randomState)
	if err != nil {
		return nil, err
	}

	if !cfg.withReplacement && k > len(children) {
		k = len(children)
	}

	return &Mux[T]{
		children:        children,
		k:               k,
		weights:         weights,
		rate:            cfg.rate,
		unlimitedRate:   cfg.unlimitedRate,
		withReplacement: cfg.withReplacement,
		revive:          cfg.revive,
		pruneEmpty:      cfg.pruneEmpty,
		rng:             rng,
	}, nil
}

// newRand normalizes the accepted random-state shapes onto one owned
// generator.
func newRand(state any) (*rand.Rand, error) {
	switch s := state.(type) {
	case nil:
		return rand.New(rand.NewSource(rand.Int63())), nil
	case int:
		return rand.New(rand.NewSource(int64(s))), nil
	case int64:
		return rand.New(rand.NewSource(s)), nil
	case *rand.Rand:
		if s == nil {
			return nil, fmt.Errorf("%w: nil generator", ErrBadRandomState)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadRandomState, state)
	}
}

// Stream starts a fresh multiplexed sequence. The active pool is seeded
// lazily on the first pull. The Mux's generator is shared across sequences,
// so two Muxes with identical seed and configuration produce identical
// output prefixes, while restarting one Mux continues its random sequence.
func (m *Mux[T]) Stream() Stream[T] {
	it := &muxIterator[T]{mux: m}
	return it.next
}

// Iterate returns a fresh multiplexed sequence honoring WithMaxIter and
// WithCycle. Cycling re-seeds the whole pool from scratch on outer
// exhaustion, which is meaningful only when the Mux naturally terminates.
func (m *Mux[T]) Iterate(opts ...IterateOption) Stream[T] {
	return iterate[T](m, opts)
}

// Cycle re-seeds the pool endlessly on outer exhaustion.
func (m *Mux[T]) Cycle(opts ...IterateOption) Stream[T] {
	return m.Iterate(append(opts, WithCycle())...)
}

// K reports the pool size after the without-replacement cap.
func (m *Mux[T]) K() int { return m.k }

// muxSlot is one entry in the active pool: a live sequence, the child it
// draws from, its remaining budget, and how many samples it has served.
type muxSlot[T any] struct {
	child  int
	stream Stream[T]
	budget int64
	served int64
}

// muxIterator is the per-sequence state of one Mux traversal: the active
// pool and the residual child-weight vector.
type muxIterator[T any] struct {
	mux      *Mux[T]
	started  bool
	residual []float64
	slots    []*muxSlot[T]
}

func (it *muxIterator[T]) next() (T, error) {
	var zero T
	m := it.mux

	if !it.started {
		it.started = true
		it.residual = append([]float64(nil), m.weights...)
		it.fill()
	}

	// Each consumer pull either returns a sample or terminates within a
	// bounded number of retries: 2k consecutive empty activations end the
	// stream, so all-empty children cannot spin the refill loop forever.
	// Retiring a stale slot that served samples earlier does not count;
	// its refill is a fresh stream, so the loop stays bounded either way.
	for misses := 0; ; {
		if len(it.slots) == 0 {
			return zero, EOS
		}

		i, ok := it.pick()
		if !ok {
			return zero, EOS
		}
		slot := it.slots[i]

		item, err := slot.stream()
		if err == nil {
			slot.served++
			if slot.budget != unlimitedBudget {
				slot.budget--
				if slot.budget == 0 {
					it.retire(i, false)
				}
			}
			return item, nil
		}
		if !isEOS(err) {
			return zero, err
		}

		it.retire(i, true)
		if slot.served == 0 {
			misses++
			if misses >= 2*m.k {
				return zero, EOS
			}
		}
	}
}

// pick selects an active slot by categorical draw over the per-slot weight
// vector. Every active slot carries the positive weight of its child, since
// activation never draws a zero-weight index.
func (it *muxIterator[T]) pick() (int, bool) {
	weights := make([]float64, len(it.slots))
	for i, slot := range it.slots {
		weights[i] = it.mux.weights[slot.child]
	}
	return sampleuv.NewWeighted(weights, it.mux.rng).Take()
}

// fill tops the pool up to k slots while the residual vector allows it.
func (it *muxIterator[T]) fill() {
	for len(it.slots) < it.mux.k && it.activate() {
	}
}

// activate draws a child from the residual weight vector and opens a fresh
// substream for it. Without replacement the chosen child is masked out; its
// retirement unmasks it again only when revive is on.
func (it *muxIterator[T]) activate() bool {
	idx, ok := sampleuv.NewWeighted(it.residual, it.mux.rng).Take()
	if !ok {
		return false
	}
	if !it.mux.withReplacement {
		it.residual[idx] = 0
	}
	it.slots = append(it.slots, &muxSlot[T]{
		child:  idx,
		stream: it.mux.children[idx].Stream(),
		budget: it.mux.drawBudget(),
	})
	return true
}

// retire destroys a slot and applies the refill policy. exhausted
// distinguishes a drained substream from one that merely ran out of budget.
func (it *muxIterator[T]) retire(i int, exhausted bool) {
	m := it.mux
	slot := it.slots[i]
	it.slots = append(it.slots[:i], it.slots[i+1:]...)

	switch {
	case exhausted && m.pruneEmpty && slot.served == 0:
		// First-pull-empty child: permanently unavailable.
		it.residual[slot.child] = 0
	case !m.withReplacement && m.revive:
		// Back to dormant: eligible for a future activation.
		it.residual[slot.child] = m.weights[slot.child]
	case !m.withReplacement:
		// Retired for good; the residual entry stays masked.
	}

	if m.withReplacement || m.revive {
		it.fill()
	}
}

// drawBudget samples the remaining-sample budget for a new slot: unlimited,
// or 1 + Poisson(rate) seeded from the Mux's generator.
func (m *Mux[T]) drawBudget() int64 {
	if m.unlimitedRate {
		return unlimitedBudget
	}
	p := distuv.Poisson{Lambda: m.rate, Src: m.rng}
	return 1 + int64(p.Rand())
}
