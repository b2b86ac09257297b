package record

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is matched by every *MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError describes a row that could not be normalized.
type MalformedRecordError struct {
	Origin Origin `json:"origin"`
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s line %d: %s %q: %s", e.Origin, e.Line, e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrMalformedRecord) succeed.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

type reasonError string

func (r reasonError) Error() string { return string(r) }

func errReason(reason string) error {
	return reasonError(reason)
}

func newMalformed(origin Origin, row RawRow, field, value string, cause error) *MalformedRecordError {
	return &MalformedRecordError{
		Origin: origin,
		Line:   row.Line,
		Field:  field,
		Value:  value,
		Reason: cause.Error(),
	}
}
