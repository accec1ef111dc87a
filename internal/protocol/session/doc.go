// Package session owns client session reliability settings.
//
// Ownership boundary:
// - connect/read/write timeouts
// - reconnect backoff policy and state
// - receive buffer and resync bounds
package session
