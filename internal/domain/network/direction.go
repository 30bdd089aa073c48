package network

import (
	"fmt"
	"strings"
)

// Direction is the firing mode of a reaction inside one compartment.  A
// compartment missing from a reaction's direction table disables the
// reaction there; there is no implicit default.
type Direction int8

const (
	Backward      Direction = -1
	Bidirectional Direction = 0
	Forward       Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Bidirectional:
		return "bidirectional"
	default:
		return fmt.Sprintf("Direction(%d)", int8(d))
	}
}

// Valid reports whether d is one of the three modes.
func (d Direction) Valid() bool {
	return d == Forward || d == Backward || d == Bidirectional
}

// ParseDirection accepts forward, backward, bidirectional (or both) and the
// numeric forms 1, -1 and 0.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "1", "+1":
		return Forward, nil
	case "backward", "-1":
		return Backward, nil
	case "bidirectional", "both", "0":
		return Bidirectional, nil
	}
	return 0, fmt.Errorf("network: unknown direction %q", s)
}

// MarshalText emits the lowercase name.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("network: invalid direction %d", int8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts anything ParseDirection does.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
