package protocol

import (
	"fmt"
	"strconv"
)

// Encoder builds outbound command bytes. Tokenized selects the
// "CMD@arg@\r\n" sender variant that always closes fields with '@'.
type Encoder struct {
	Tokenized bool
}

// Command encodes name with optional args. Fields containing '@', CR, LF or
// non-ASCII bytes are rejected because the wire has no escaping.
func (e Encoder) Command(name string, args ...string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	size := len(name) + 3
	for i, arg := range args {
		if err := ValidateField(arg); err != nil {
			return nil, fmt.Errorf("arg[%d]: %w", i, err)
		}
		size += len(arg) + 1
	}

	out := make([]byte, 0, size)
	out = append(out, name...)
	for _, arg := range args {
		out = append(out, FieldSeparator)
		out = append(out, arg...)
	}
	if e.Tokenized {
		out = append(out, FieldSeparator)
	}
	return append(out, LineTerminator...), nil
}

// BinaryPush encodes tag@<len>@payload@\r\n. The payload is opaque.
func (e Encoder) BinaryPush(tag string, payload []byte) ([]byte, error) {
	if err := ValidateName(tag); err != nil {
		return nil, err
	}
	length := strconv.Itoa(len(payload))
	out := make([]byte, 0, len(tag)+len(length)+len(payload)+5)
	out = append(out, tag...)
	out = append(out, FieldSeparator)
	out = append(out, length...)
	out = append(out, FieldSeparator)
	out = append(out, payload...)
	return append(out, BinaryTerminator...), nil
}

// ValidateName checks a command name or tag: non-empty and a valid field.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidField)
	}
	return ValidateField(name)
}

// ValidateField rejects values the wire cannot carry unambiguously.
func ValidateField(v string) error {
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == FieldSeparator:
			return fmt.Errorf("%w: %q contains '@' at %d", ErrInvalidField, v, i)
		case c == '\r' || c == '\n':
			return fmt.Errorf("%w: %q contains line break at %d", ErrInvalidField, v, i)
		case c > 0x7f:
			return fmt.Errorf("%w: %q contains non-ascii byte at %d", ErrInvalidField, v, i)
		}
	}
	return nil
}
