// Package client owns the reconnecting session with the command/telemetry server.
//
// Ownership boundary:
// - socket lifecycle: dial, read loop, write path, disconnect detection
// - reconnect backoff and cooperative shutdown
// - delivery of decoded frames and status to an EventSink
//
// Lifecycle order:
// - Disconnected -> Connecting -> Connected
//
// - a failed dial or a lost session goes back to Connecting after a backoff delay.
//
// - Stop moves any state through Closing to Disconnected.
//
// One goroutine owns the socket reads and the receive buffer. Sends may be
// issued from any goroutine; while not connected they fail immediately and
// are never queued for replay.
package client
