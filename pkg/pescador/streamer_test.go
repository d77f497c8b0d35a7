package pescador

import (
	"errors"
	"testing"
)

// countFactory produces a fresh 0..n-1 sequence on each activation.
func countFactory(n int) func() Stream[int] {
	return func() Stream[int] {
		i := 0
		return func() (int, error) {
			if i >= n {
				return 0, EOS
			}
			v := i
			i++
			return v, nil
		}
	}
}

// sequentialFactory produces an endless 0,1,2,... sequence on each
// activation.
func sequentialFactory() func() Stream[int] {
	return func() Stream[int] {
		i := 0
		return func() (int, error) {
			v := i
			i++
			return v, nil
		}
	}
}

func mustCollect[T any](t *testing.T, s Stream[T]) []T {
	t.Helper()
	items, err := Collect(s)
	if err != nil {
		t.Fatalf("Failed to collect stream: %v", err)
	}
	return items
}

func assertEqualSlices[T comparable](t *testing.T, expected, actual []T) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("Expected %d items, got %d", len(expected), len(actual))
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Fatalf("Expected %v at position %d, got %v", expected[i], i, actual[i])
		}
	}
}

func TestStreamerIterable(t *testing.T) {
	expected := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	streamer := MustStreamer[int](expected)

	// Two traversals must be independent and identical.
	assertEqualSlices(t, expected, mustCollect(t, streamer.Stream()))
	assertEqualSlices(t, expected, mustCollect(t, streamer.Stream()))
}

func TestStreamerGeneratorFunc(t *testing.T) {
	expected := mustCollect(t, countFactory(10)())
	streamer := MustStreamer[int](countFactory(10))

	assertEqualSlices(t, expected, mustCollect(t, streamer.Iterate()))
	assertEqualSlices(t, expected, mustCollect(t, streamer.Iterate()))
}

func TestStreamerFinite(t *testing.T) {
	cases := []struct {
		name    string
		maxIter int64
		useMax  bool
		want    int
	}{
		{"NoCap", 0, false, 50},
		{"Cap10", 10, true, 10},
		{"Cap50", 50, true, 50},
		{"Cap100", 100, true, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			streamer := MustStreamer[int](countFactory(50))
			for round := 0; round < 3; round++ {
				var s Stream[int]
				if tc.useMax {
					s = streamer.Iterate(WithMaxIter(tc.maxIter))
				} else {
					s = streamer.Iterate()
				}
				items := mustCollect(t, s)
				if len(items) != tc.want {
					t.Fatalf("Round %d: expected %d items, got %d", round, tc.want, len(items))
				}
				for i, v := range items {
					if v != i {
						t.Fatalf("Round %d: expected %d at position %d, got %d", round, i, i, v)
					}
				}
			}
		})
	}
}

func TestStreamerInfinite(t *testing.T) {
	for _, maxIter := range []int64{10, 50} {
		streamer := MustStreamer[int](sequentialFactory())
		for round := 0; round < 3; round++ {
			items := mustCollect(t, streamer.Iterate(WithMaxIter(maxIter)))
			if int64(len(items)) != maxIter {
				t.Fatalf("Expected %d items, got %d", maxIter, len(items))
			}
			for i, v := range items {
				if v != i {
					t.Fatalf("Expected %d at position %d, got %d", i, i, v)
				}
			}
		}
	}
}

func TestStreamerInStreamer(t *testing.T) {
	inner := MustStreamer[int](sequentialFactory())
	outer := MustStreamer[int](inner)

	for round := 0; round < 3; round++ {
		items := mustCollect(t, outer.Iterate(WithMaxIter(25)))
		if len(items) != 25 {
			t.Fatalf("Expected 25 items, got %d", len(items))
		}
		for i, v := range items {
			if v != i {
				t.Fatalf("Expected %d at position %d, got %d", i, i, v)
			}
		}
	}
}

func TestStreamerCycle(t *testing.T) {
	const streamLen = 10
	streamer := MustStreamer[int](countFactory(streamLen))

	if streamer.Active() {
		t.Fatal("Expected no live sequence before iteration")
	}

	// Exhaust the stream once.
	if got := len(mustCollect(t, streamer.Stream())); got != streamLen {
		t.Fatalf("Expected %d items, got %d", streamLen, got)
	}
	if streamer.Active() {
		t.Fatal("Expected live sequence to clear on exhaustion")
	}

	// Now cycle well past a single pass.
	const countMax = 5 * streamLen
	items := mustCollect(t, streamer.Cycle(WithMaxIter(countMax)))
	if len(items) != countMax {
		t.Fatalf("Expected %d items, got %d", countMax, len(items))
	}
	for i, v := range items {
		if v != i%streamLen {
			t.Fatalf("Expected %d at position %d, got %d", i%streamLen, i, v)
		}
	}
}

func TestStreamerCycleEmpty(t *testing.T) {
	// A cycle over a source that restarts empty must terminate, not spin.
	streamer := MustStreamer[int](countFactory(0))
	items := mustCollect(t, streamer.Cycle(WithMaxIter(100)))
	if len(items) != 0 {
		t.Fatalf("Expected 0 items from empty cycle, got %d", len(items))
	}
}

func TestStreamerBadSource(t *testing.T) {
	cases := []struct {
		name   string
		source any
	}{
		{"Scalar", 6},
		{"NilFactory", (func() Stream[int])(nil)},
		{"Nil", nil},
		{"WrongFunction", func() int { return 6 }},
		{"BareStream", FromSlice([]int{1, 2, 3})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewStreamer[int](tc.source); !errors.Is(err, ErrBadSource) {
				t.Fatalf("Expected ErrBadSource, got %v", err)
			}
		})
	}
}

func TestStreamerNilFactoryResult(t *testing.T) {
	streamer := MustStreamer[int](func() Stream[int] { return nil })
	_, err := streamer.Stream()()
	if !errors.Is(err, ErrBadSource) {
		t.Fatalf("Expected ErrBadSource from nil factory result, got %v", err)
	}
}

func TestStreamerSingleLiveSequence(t *testing.T) {
	streamer := MustStreamer[int](countFactory(3))

	first := streamer.Stream()
	second := streamer.Stream()
	if !streamer.Active() {
		t.Fatal("Expected a live sequence after activation")
	}

	// The second activation owns the live handle; exhausting it clears
	// the streamer, exhausting the first does not.
	mustCollect(t, first)
	if !streamer.Active() {
		t.Fatal("Detached sequence must not clear the live handle")
	}
	mustCollect(t, second)
	if streamer.Active() {
		t.Fatal("Expected live sequence to clear on exhaustion")
	}
}

func TestStreamerErrorPropagation(t *testing.T) {
	boom := errors.New("boom")
	streamer := MustStreamer[int](func() Stream[int] {
		return func() (int, error) { return 0, boom }
	})

	_, err := Collect(streamer.Iterate())
	if !errors.Is(err, boom) {
		t.Fatalf("Expected source error to propagate, got %v", err)
	}
}
