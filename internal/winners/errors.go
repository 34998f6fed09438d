package winners

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is returned when the winners CSV cannot be used at all.
var ErrConfiguration = errors.New("invalid winners file")

// MissingColumnsError reports required header names absent from the CSV.
type MissingColumnsError struct {
	Path    string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.Path, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrConfiguration) hold for missing columns.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrConfiguration
}
