// Package pescador composes many finite or infinite sample sources into a
// single derived stream with caller-controlled statistics.
//
// The two core pieces are Streamer, a restartable wrapper around a lazy
// source, and Mux, a weighted multiplexer over many Streamers. A Mux
// satisfies the same Streamable contract as a Streamer, so multiplexers
// nest.
//
// Everything is pull-based and single-threaded: the consumer asks for the
// next value, the Mux picks an active substream by weighted draw, pulls one
// value from it, and hands it back. Exhausted substreams are retired and,
// depending on policy, replaced or revived.
package pescador
