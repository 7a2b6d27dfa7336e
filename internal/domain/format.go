package domain

import (
	"fmt"
	"math"
	"strconv"
)

// FormatDistance renders a route distance for display.
// Below one kilometer it uses whole meters; at or above, kilometers
// rounded to one decimal with a trailing ".0" dropped.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	km := math.Round(meters/100) / 10
	return strconv.FormatFloat(km, 'f', -1, 64) + " km"
}

// FormatDuration renders a duration in whole minutes as "N min",
// "H hr", or "H hr M min".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	rem := minutes % 60
	if rem == 0 {
		return fmt.Sprintf("%d hr", hours)
	}
	return fmt.Sprintf("%d hr %d min", hours, rem)
}
