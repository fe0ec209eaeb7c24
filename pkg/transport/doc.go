// Package transport carries gateway frames between the client and a gateway.
//
// Two transports implement Conn:
//
//   - WebSocket (ws://host:1987): text codec frames travel as text messages,
//     binary codec frames as binary messages. Keep-alive uses WebSocket
//     ping/pong control frames carrying a 4-byte sequence number.
//   - Stream: 4-byte big-endian length-prefixed frames over a TCP byte
//     stream, used with the binary codec to bridge the radio link.
//
// Conn.Receive blocks and suits the synchronous client. Pump turns any Conn
// into push-style delivery for the asynchronous client.
//
// # Keep-Alive
//
//   - Ping interval: 20 seconds
//   - Pong timeout: 10 seconds
//   - Max missed pongs: 2
//
// Pongs are processed while a reader is inside Receive, so keep-alive is
// meant for connections that are read continuously.
package transport
