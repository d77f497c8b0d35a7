package pescador

import "errors"

// EOS signals the normal end of a stream. Exhaustion is a state transition,
// not a failure: consumers match it with errors.Is and any other error
// propagates unchanged.
var EOS = errors.New("end of stream")

// Stream is a lazy pull-based sequence. Each call yields the next value, or
// EOS once the sequence is exhausted.
type Stream[T any] func() (T, error)

// RecordStream is the common case of a stream of keyed records.
type RecordStream = Stream[Record]

// FromSlice creates a stream over a slice. The slice is iterated as-is; wrap
// it in a Streamer for a restartable view.
func FromSlice[T any](items []T) Stream[T] {
	index := 0
	return func() (T, error) {
		if index >= len(items) {
			var zero T
			return zero, EOS
		}
		item := items[index]
		index++
		return item, nil
	}
}

// FromChannel creates a stream that drains a channel until it closes.
func FromChannel[T any](ch <-chan T) Stream[T] {
	return func() (T, error) {
		item, ok := <-ch
		if !ok {
			var zero T
			return zero, EOS
		}
		return item, nil
	}
}

// Generate adapts a generator function into a stream.
func Generate[T any](generator func() (T, error)) Stream[T] {
	return generator
}

// Range creates a bounded numeric stream from start to end by step.
func Range(start, end, step int64) Stream[int64] {
	current := start
	return func() (int64, error) {
		if (step > 0 && current >= end) || (step < 0 && current <= end) {
			return 0, EOS
		}
		value := current
		current += step
		return value, nil
	}
}

// Empty creates a stream that is exhausted from the first pull.
func Empty[T any]() Stream[T] {
	return func() (T, error) {
		var zero T
		return zero, EOS
	}
}

// Collect gathers all stream elements into a slice.
func Collect[T any](stream Stream[T]) ([]T, error) {
	var result []T
	for {
		item, err := stream()
		if err != nil {
			if errors.Is(err, EOS) {
				return result, nil
			}
			return result, err
		}
		result = append(result, item)
	}
}

// Count drains a stream and reports how many elements it produced.
func Count[T any](stream Stream[T]) (int64, error) {
	var count int64
	for {
		_, err := stream()
		if err != nil {
			if errors.Is(err, EOS) {
				return count, nil
			}
			return count, err
		}
		count++
	}
}

// Filter transforms one stream into another.
type Filter[T, U any] func(Stream[T]) Stream[U]

// Take limits a stream to its first n elements.
func Take[T any](n int64) Filter[T, T] {
	return func(input Stream[T]) Stream[T] {
		var count int64
		return func() (T, error) {
			if count >= n {
				var zero T
				return zero, EOS
			}
			count++
			return input()
		}
	}
}

// isEOS reports whether err marks normal stream exhaustion.
func isEOS(err error) bool {
	return errors.Is(err, EOS)
}

// ForEach drains a stream, applying fn to each element.
func ForEach[T any](stream Stream[T], fn func(T)) error {
	for {
		item, err := stream()
		if err != nil {
			if errors.Is(err, EOS) {
				return nil
			}
			return err
		}
		fn(item)
	}
}
