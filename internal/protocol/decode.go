package protocol

import "strings"

// ParseLine splits the content of a text line (CRLF already removed) into a
// TextFrame. One trailing '@' from the tokenized form does not produce an
// empty trailing argument.
func ParseLine(line []byte) TextFrame {
	s := string(line)
	s = strings.TrimSuffix(s, string(FieldSeparator))
	parts := strings.Split(s, string(FieldSeparator))
	args := parts[1:]
	if len(args) == 0 {
		args = []string{}
	}
	return TextFrame{Command: parts[0], Args: args}
}
