package utils

import "time"

// TimeframeStart returns the beginning of the leaderboard window for
// the given timeframe, relative to now. The all-time window has no
// start and returns nil.
func TimeframeStart(now time.Time, timeframe string) *time.Time {
	var start time.Time

	switch timeframe {
	case "daily":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "weekly":
		// Weeks start on Monday.
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		start = day.AddDate(0, 0, -(weekday - 1))
	case "monthly":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return nil
	}

	return &start
}
