package frame

import "github.com/danmuck/telectl/internal/protocol"

// Buffer accumulates received bytes and hands out frames from its front.
// It is not safe for concurrent use; one read loop owns it.
type Buffer struct {
	data   []byte
	off    int
	limits Limits
}

func NewBuffer(limits Limits) *Buffer {
	return &Buffer{limits: limits}
}

// Append copies p onto the end of the buffer.
func (b *Buffer) Append(p []byte) {
	if b.off > 0 && b.off >= len(b.data)/2 {
		n := copy(b.data, b.data[b.off:])
		b.data = b.data[:n]
		b.off = 0
	}
	b.data = append(b.data, p...)
}

// Next runs Extract on the pending bytes and removes whatever the result
// consumed or dropped.
func (b *Buffer) Next() Result {
	res := Extract(b.data[b.off:], b.limits)
	b.off += res.N
	if b.off == len(b.data) {
		b.data = b.data[:0]
		b.off = 0
	}
	return res
}

// Len returns the number of pending bytes.
func (b *Buffer) Len() int {
	return len(b.data) - b.off
}

// Reset discards pending bytes, including any partial frame.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.off = 0
}

// Split decodes every complete frame in data. It returns the frames in wire
// order, the number of bytes dropped while resynchronizing and the trailing
// bytes that do not yet form a frame.
func Split(data []byte, limits Limits) ([]protocol.Frame, int, []byte) {
	var (
		frames  []protocol.Frame
		dropped int
		off     int
	)
	for {
		res := Extract(data[off:], limits)
		switch res.Status {
		case Decoded:
			frames = append(frames, res.Frame)
		case Resync:
			dropped += res.N
		default:
			return frames, dropped, data[off:]
		}
		off += res.N
	}
}
