// Package format provides human-readable formatting for durations and ETA
// estimates shown on the job progress routes.
package format

import (
	"fmt"
	"time"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds
// for durations less than a second, and the default string representation
// otherwise. This provides a more readable output for short computations.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// EstimateETA extrapolates the remaining duration of a job from its elapsed
// time and completed fraction, assuming a constant processing rate. It
// returns 0 when there is not yet enough signal (no progress, or already
// complete).
func EstimateETA(elapsed time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || fraction >= 1 || elapsed <= 0 {
		return 0
	}
	remaining := float64(elapsed) * (1 - fraction) / fraction
	return time.Duration(remaining)
}

// FormatETA formats an ETA estimate compactly: "45s", "2m30s", "1h15m".
// Zero or negative estimates render as "calculating..." since there is not
// yet enough data for a meaningful prediction.
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}

	h := int(eta.Hours())
	m := int(eta.Minutes()) % 60
	s := int(eta.Seconds()) % 60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
