package file

import "fmt"

// MissingArgumentError reports a required argument the model did not supply.
type MissingArgumentError struct {
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument %q", e.Argument)
}

// InvalidRangeError reports an out-of-bounds line range.
type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid line range: %s", e.Reason)
}
