package protocol

const (
	FieldSeparator = '@'
	LineTerminator = "\r\n"
	// BinaryTerminator closes every binary frame after its payload.
	BinaryTerminator = "@\r\n"
)

// Tags that carry meaning beyond a plain text command.
const (
	TagSamples = "A_D"
	TagReport  = "A_R"
	TagMarker  = "A_M"
)

// Frame is one decoded wire frame. Implementations are TextFrame and BinaryFrame.
type Frame interface {
	Tag() string
	frame()
}

// TextFrame is a CRLF-terminated line split on '@'.
type TextFrame struct {
	Command string   `json:"command" yaml:"command"`
	Args    []string `json:"args" yaml:"args"`
}

// BinaryFrame is an A_D or A_R frame; Payload excludes header and terminator.
type BinaryFrame struct {
	Command string `json:"command" yaml:"command"`
	Payload []byte `json:"payload" yaml:"payload"`
}

func (f TextFrame) Tag() string   { return f.Command }
func (f BinaryFrame) Tag() string { return f.Command }

func (TextFrame) frame()   {}
func (BinaryFrame) frame() {}
