// Package timing measures and formats processing durations for logs.
package timing

import (
	"fmt"
	"time"
)

// FormatDuration renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Rate returns items per second over d, or 0 when d is zero.
func Rate(items int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(items) / d.Seconds()
}
