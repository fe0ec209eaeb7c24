// Package subscription tracks property subscriptions of an asynchronous
// gateway client.
//
// A subscribe request adds a pending entry. PROPERTY SUBSCRIBED with a
// success status makes it active; any other status drops it. PROPERTY
// UPDATE frames are only delivered for active entries. An acknowledged
// unsubscribe removes the entry.
//
// # Lifecycle
//
// Subscriptions do not survive connection loss. The registry is cleared
// when the connection closes and subscriptions must be re-established
// after reconnecting.
package subscription
