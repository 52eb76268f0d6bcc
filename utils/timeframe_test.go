package utils

import (
	"testing"
	"time"
)

func TestTimeframeStart(t *testing.T) {
	// A Wednesday.
	now := time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC)

	if got := TimeframeStart(now, "all"); got != nil {
		t.Errorf("all-time window should have no start, got %v", got)
	}

	daily := TimeframeStart(now, "daily")
	if daily == nil || !daily.Equal(time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected daily start: %v", daily)
	}

	weekly := TimeframeStart(now, "weekly")
	if weekly == nil || !weekly.Equal(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected weekly start: %v", weekly)
	}

	monthly := TimeframeStart(now, "monthly")
	if monthly == nil || !monthly.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected monthly start: %v", monthly)
	}
}

func TestTimeframeStartSundayWeek(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	now := time.Date(2025, time.March, 16, 9, 0, 0, 0, time.UTC)

	weekly := TimeframeStart(now, "weekly")
	if weekly == nil || !weekly.Equal(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected weekly start on Sunday: %v", weekly)
	}
}
