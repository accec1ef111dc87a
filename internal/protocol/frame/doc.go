// Package frame extracts frames from an accumulating receive buffer.
//
// Extract looks at the front of the buffer only. A CRLF that precedes the
// first '@' ends a text line. Otherwise the bytes before the first '@' are a
// tag: A_D and A_R carry a decimal header field and a fixed-size payload
// closed by "@\r\n"; any other tag is a text line that waits for CRLF.
// Malformed headers and terminators resynchronize by dropping one byte.
package frame
