// Package protocol owns the command/telemetry wire contract.
//
// Ownership boundary:
// - frame types shared by the codec and the client
// - outbound command encoding
// - text line parsing
//
// Wire forms, all terminated by CRLF:
//
//	CMD\r\n                          plain command
//	CMD@arg1@arg2\r\n                tokenized command (a trailing '@' is tolerated)
//	A_D@<len>@<len bytes>@\r\n       binary sample push
//	A_R@<frameCount>@<payload>@\r\n  binary telemetry report
//	A_M@<id>@\r\n                    marker notification
//
// There is no escaping: field values never contain '@', CR or LF.
package protocol
