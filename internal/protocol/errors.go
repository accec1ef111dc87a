package protocol

import "errors"

var (
	ErrProtocolCorruption = errors.New("protocol: corrupt frame")
	ErrDecodeWarning      = errors.New("protocol: decode warning")
	ErrInvalidField       = errors.New("protocol: invalid field")
	ErrPayloadTooLarge    = errors.New("protocol: payload too large")
	ErrTruncated          = errors.New("protocol: truncated data")
	ErrTagMismatch        = errors.New("protocol: tag mismatch")
)
