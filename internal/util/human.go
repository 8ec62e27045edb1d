package util

import (
	"fmt"
	"time"
)

// HumanAge formats a cache age the way the widget shows it: minutes
// under an hour, whole hours after that.
func HumanAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	min := int(d.Minutes())
	if min < 60 {
		return fmt.Sprintf("%d min", min)
	}

	return fmt.Sprintf("%d h", min/60)
}
