package pescador

// Error is a sentinel error kind declared as a const string. Consts cannot
// be reassigned, and == comparison on the string type keeps them compatible
// with errors.Is through wrapping.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrBadSource is returned by NewStreamer when the source is not one of
	// the accepted shapes, or its factory does not produce a stream.
	ErrBadSource Error = "pescador: source does not produce a stream"

	// ErrEmptyMux is returned by NewMux when no children are given.
	ErrEmptyMux Error = "pescador: mux requires at least one child"

	// ErrShapeMismatch is returned by NewMux when the weight vector length
	// does not match the number of children.
	ErrShapeMismatch Error = "pescador: weights do not match children"

	// ErrDegenerateWeights is returned by NewMux when a weight is negative
	// or all weights are zero.
	ErrDegenerateWeights Error = "pescador: weights must be non-negative and sum to a positive value"

	// ErrBadRandomState is returned by NewMux when the random state is not a
	// seed, a *rand.Rand, or nil.
	ErrBadRandomState Error = "pescador: unsupported random state"

	// ErrBadPoolSize is returned by NewMux when k is not positive.
	ErrBadPoolSize Error = "pescador: pool size must be positive"

	// ErrBadFields is returned by Tuples when no fields are requested, or
	// surfaced from the first pull that meets a record lacking one.
	ErrBadFields Error = "pescador: bad tuple fields"
)
