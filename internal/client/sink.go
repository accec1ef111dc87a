package client

import "github.com/danmuck/telectl/internal/protocol"

// State is the observable connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// EventSink receives client output. OnFrame and OnStateChange are called
// from the session goroutine in order; OnLog may also be called from
// goroutines issuing sends, so implementations must be safe for concurrent use.
type EventSink interface {
	OnLog(text string)
	OnStateChange(state State)
	OnFrame(f protocol.Frame)
}

// FuncSink adapts plain functions to EventSink. Nil fields are ignored.
type FuncSink struct {
	Log   func(string)
	State func(State)
	Frame func(protocol.Frame)
}

func (s FuncSink) OnLog(text string) {
	if s.Log != nil {
		s.Log(text)
	}
}

func (s FuncSink) OnStateChange(state State) {
	if s.State != nil {
		s.State(state)
	}
}

func (s FuncSink) OnFrame(f protocol.Frame) {
	if s.Frame != nil {
		s.Frame(f)
	}
}

type EventKind int

const (
	EventLog EventKind = iota
	EventState
	EventFrame
)

// Event is one EventSink callback in value form.
type Event struct {
	Kind  EventKind
	Text  string
	State State
	Frame protocol.Frame
}

// ChannelSink queues events on C. Delivery blocks when C is full, so the
// consumer must keep draining C until Stop returns.
type ChannelSink struct {
	C chan Event
}

func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, size)}
}

func (s *ChannelSink) OnLog(text string) {
	s.C <- Event{Kind: EventLog, Text: text}
}

func (s *ChannelSink) OnStateChange(state State) {
	s.C <- Event{Kind: EventState, State: state}
}

func (s *ChannelSink) OnFrame(f protocol.Frame) {
	s.C <- Event{Kind: EventFrame, Frame: f}
}

type discardSink struct{}

func (discardSink) OnLog(string)           {}
func (discardSink) OnStateChange(State)    {}
func (discardSink) OnFrame(protocol.Frame) {}
