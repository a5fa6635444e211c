// Package key defines keyboard event types for the input pipeline.
//
// An Event pairs a Key (or rune) with modifier flags and a press/repeat/
// release state. Events are produced by the protocol decoder and consumed
// by the dispatch layer. The package also parses human-readable key
// specifications ("Ctrl+S", "Shift+Tab") used by bindings.
package key
