package epack

import (
	"fmt"
	"strings"
	"time"
)

// RelativeTime renders t relative to now ("2 hours ago"). Zero times
// render as "Unknown"; the API reports those for accounts that have
// never logged in.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}

	diff := now.Sub(t)
	if diff < time.Minute {
		return "Just now"
	}

	if min := int(diff.Minutes()); min < 60 {
		return plural(min, "minute")
	}
	if hr := int(diff.Hours()); hr < 24 {
		return plural(hr, "hour")
	}
	if days := int(diff.Hours() / 24); days < 7 {
		return plural(days, "day")
	}
	if weeks := int(diff.Hours() / 24 / 7); weeks < 4 {
		return plural(weeks, "week")
	}
	if months := int(diff.Hours() / 24 / 30); months < 12 {
		return plural(months, "month")
	}
	return plural(int(diff.Hours()/24/365), "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// RatingStars renders a 0-5 rating as filled and empty stars. Unrated
// (zero) renders empty.
func RatingStars(rating int) string {
	if rating <= 0 {
		return ""
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
