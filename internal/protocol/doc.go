// Package protocol implements the incremental terminal input decoder.
//
// The decoder reassembles escape sequences split across arbitrary read
// boundaries and classifies them under the competing wire encodings a
// terminal may speak: plain CSI and SS3 keyboard sequences, the kitty
// extended keyboard protocol (CSI ... u), SGR mouse reports (CSI < ... M/m)
// and legacy X10 mouse reports (CSI M + three raw bytes). Bytes that do
// not yet form a complete token stay in an internal accumulator; a short
// quiet-period watchdog resolves stragglers as literal input so a bare
// Escape keypress is never confused with an abandoned sequence prefix.
//
// Malformed input is never fatal: unrecognized single bytes are dropped
// to resynchronize, and unknown-but-well-formed sequences are consumed
// without emitting events.
package protocol
