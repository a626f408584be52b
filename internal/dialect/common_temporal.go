package dialect

import (
	"fmt"
	"time"
)

// celDurationSeconds converts a CEL duration literal ("3600s", "1h30m",
// "500ms") to total seconds. CEL's duration grammar is a subset of Go's
// time.ParseDuration syntax for the units this kernel accepts, so we reuse
// it rather than hand-rolling a parser.
func celDurationSeconds(celDuration string) (float64, error) {
	d, err := time.ParseDuration(celDuration)
	if err != nil {
		return 0, fmt.Errorf("dialect: invalid CEL duration %q: %w", celDuration, err)
	}
	return d.Seconds(), nil
}
