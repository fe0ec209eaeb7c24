// Package wire defines the typed protocol model shared by the text and
// binary codecs of the OpenStuder gateway protocol.
//
// The gateway speaks one logical operation set over two encodings:
//   - Text frames (WebSocket): an operation line, key:value headers, a blank
//     line and an optional body. See package textwire.
//   - Binary frames (paired radio link): a CBOR sequence starting with an
//     opcode. See package cborwire.
//
// Both codecs implement Codec and map between the request and message
// structs declared here and raw frame bytes. They perform no I/O and keep no
// state.
//
// # Values
//
// Property values and extension parameters are carried as Value, a closed
// sum of absent, boolean, number and text.
//
// # Errors
//
// Decoding an ERROR frame, or any frame that is structurally invalid, fails
// with a *ProtocolError. Operation status codes are ordinary result values
// and are never returned as errors.
package wire
