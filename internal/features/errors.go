package features

import (
	"fmt"
	"strings"
)

// SchemaError is returned when required source columns are absent
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing expected column(s) in the data: %s", strings.Join(e.Missing, ", "))
}

// TransformError wraps any other failure while deriving features
type TransformError struct {
	Step string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform failed at %s: %v", e.Step, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
