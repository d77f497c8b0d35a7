package pescador

import "fmt"

// Tuple is an ordered projection of record fields.
type Tuple []any

// Tuples projects each record from src onto an ordered tuple of the named
// fields. Requesting zero fields fails immediately with ErrBadFields; a
// record lacking a requested field surfaces ErrBadFields from the pull that
// meets it.
func Tuples(src Streamable[Record], keys ...string) (Stream[Tuple], error) {
	return TuplesIter(src, keys)
}

// TuplesIter is Tuples with iteration options carried through, matching
// Iterate's WithMaxIter and WithCycle behavior.
func TuplesIter(src Streamable[Record], keys []string, opts ...IterateOption) (Stream[Tuple], error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no fields requested", ErrBadFields)
	}

	base := iterate[Record](src, opts)
	return func() (Tuple, error) {
		record, err := base()
		if err != nil {
			return nil, err
		}
		tuple := make(Tuple, len(keys))
		for i, key := range keys {
			val, ok := record[key]
			if !ok {
				return nil, fmt.Errorf("%w: record has no field %q", ErrBadFields, key)
			}
			tuple[i] = val
		}
		return tuple, nil
	}, nil
}
