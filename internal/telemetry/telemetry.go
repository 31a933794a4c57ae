// Package telemetry defines the sample type carried over the serial link and
// the line-oriented text codec for it. The codec performs no I/O and holds no
// state so both directions can be tested in isolation.
package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxAngle is the upper bound of the sweep arc in degrees.
const MaxAngle = 180

// MaxDistanceCM is the usable sensor range in centimeters. Distance 0 is the
// reserved sentinel for "no valid echo".
const MaxDistanceCM = 400

// Sample is a single angle/distance measurement. Angle is in degrees within
// [0,180]; Distance is in centimeters within [0,400] where 0 means no
// detection. The scanner enforces both domains before a Sample exists, so
// consumers do not re-validate distance.
type Sample struct {
	Angle    int `json:"angle"`
	Distance int `json:"distance"`
}

// ErrorKind classifies decode failures.
type ErrorKind int

const (
	// MalformedFrame indicates a line that fails structural parsing: wrong
	// prefix, wrong token count, or a non-integer field.
	MalformedFrame ErrorKind = iota
	// OutOfRange indicates a structurally valid line whose angle falls
	// outside [0,180].
	OutOfRange
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedFrame:
		return "malformed frame"
	case OutOfRange:
		return "out of range"
	default:
		return "unknown"
	}
}

// ParseError reports a rejected telemetry line. Consumers skip the line and
// continue; one bad frame never halts the stream.
type ParseError struct {
	Kind ErrorKind
	Line string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s (line %q)", e.Kind, e.Msg, e.Line)
}

// Is lets errors.Is match against the kind sentinels below.
func (e *ParseError) Is(target error) bool {
	pe, ok := target.(*ParseError)
	return ok && pe.Kind == e.Kind
}

// ErrMalformedFrame and ErrOutOfRange are sentinels for errors.Is checks.
var (
	ErrMalformedFrame = &ParseError{Kind: MalformedFrame}
	ErrOutOfRange     = &ParseError{Kind: OutOfRange}
)

// Encode renders a sample as one newline-terminated telemetry line:
//
//	A:<angle> D:<distance>\n
func Encode(s Sample) string {
	return fmt.Sprintf("A:%d D:%d\n", s.Angle, s.Distance)
}

// Decode parses one telemetry line back into a Sample. Trailing whitespace
// and line terminators are stripped first. The angle is validated against
// [0,180] because the transport is untrusted; the distance deliberately is
// not, so malformed or extended sensor data stays visible downstream instead
// of vanishing at this layer.
func Decode(line string) (Sample, error) {
	trimmed := strings.TrimRight(line, " \t\r\n")

	if !strings.HasPrefix(trimmed, "A:") {
		return Sample{}, &ParseError{Kind: MalformedFrame, Line: trimmed, Msg: "missing A: prefix"}
	}

	tokens := strings.Split(trimmed, " ")
	if len(tokens) != 2 {
		return Sample{}, &ParseError{Kind: MalformedFrame, Line: trimmed, Msg: fmt.Sprintf("expected 2 fields, got %d", len(tokens))}
	}

	angle, err := parseField(tokens[0], "A")
	if err != nil {
		return Sample{}, &ParseError{Kind: MalformedFrame, Line: trimmed, Msg: err.Error()}
	}
	distance, err := parseField(tokens[1], "D")
	if err != nil {
		return Sample{}, &ParseError{Kind: MalformedFrame, Line: trimmed, Msg: err.Error()}
	}

	if angle < 0 || angle > MaxAngle {
		return Sample{}, &ParseError{Kind: OutOfRange, Line: trimmed, Msg: fmt.Sprintf("angle %d outside [0,%d]", angle, MaxAngle)}
	}

	return Sample{Angle: angle, Distance: distance}, nil
}

// parseField splits a <label>:<integer> token and returns the integer.
func parseField(token, label string) (int, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("field %q is not <label>:<value>", token)
	}
	if parts[0] != label {
		return 0, fmt.Errorf("expected label %q, got %q", label, parts[0])
	}
	v, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("field %s has non-integer value %q", label, parts[1])
	}
	return v, nil
}
