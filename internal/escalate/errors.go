package escalate

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates a consultation capability failed or timed out.
// The router folds it into a degraded outcome; it only escapes when every
// capability in a consensus panel is down.
var ErrUnavailable = errors.New("escalation capability unavailable")

// ConsensusSplitError indicates a consensus panel disagreed beyond the
// configured tolerance. The decision is surfaced to the supervisor rather
// than resolved automatically: at the highest tier the engine never
// silently picks a winner.
type ConsensusSplitError struct {
	// Positions maps each stance to the capabilities that took it.
	Positions map[string][]string
	// Dissent is the fraction of the panel outside the leading stance.
	Dissent float64
	// Tolerance is the configured dissent tolerance that was exceeded.
	Tolerance float64
}

func (e *ConsensusSplitError) Error() string {
	return fmt.Sprintf("consensus split: dissent %.2f exceeds tolerance %.2f across %d positions",
		e.Dissent, e.Tolerance, len(e.Positions))
}

// IsConsensusSplit reports whether err is a ConsensusSplitError.
func IsConsensusSplit(err error) bool {
	var split *ConsensusSplitError
	return errors.As(err, &split)
}
