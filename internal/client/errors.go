package client

import (
	"errors"
	"fmt"
)

var (
	ErrConnect        = errors.New("client: connect failed")
	ErrSendFailure    = errors.New("client: send failed")
	ErrNotConnected   = fmt.Errorf("%w: not connected", ErrSendFailure)
	ErrInvalidAddress = errors.New("client: invalid address")
	ErrAlreadyRunning = errors.New("client: already running")
	ErrRemoteClosed   = errors.New("client: remote closed connection")
	ErrIdleTimeout    = errors.New("client: idle read timeout")
	ErrBufferOverflow = errors.New("client: receive buffer overflow")
	ErrResyncLimit    = errors.New("client: resync limit exceeded")
)
