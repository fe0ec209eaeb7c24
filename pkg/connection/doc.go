// Package connection holds the gateway session state machine and the
// reconnection backoff used by long-running clients.
//
// # Session
//
//	DISCONNECTED -> CONNECTING -> AUTHORIZING -> CONNECTED
//	      ^_____________|______________|____________|
//
// Connect requires DISCONNECTED. Data operations require CONNECTED and
// fail with a *StateError otherwise. Any failure, a local disconnect or a
// remote close returns the session to DISCONNECTED and clears the granted
// access level.
//
// # Reconnection Strategy
//
// Reconnector retries with exponential backoff:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s, 32s
//  3. Maximum delay: 60 seconds
//  4. Reset to 1s once a session reached CONNECTED
//
// A gateway that accepts the transport but refuses authorization does not
// reset the backoff.
package connection
