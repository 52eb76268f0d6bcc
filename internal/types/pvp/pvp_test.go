package pvp

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to MatchStatus
		want     bool
	}{
		{StatusWaiting, StatusPending, true},
		{StatusWaiting, StatusActive, true},
		{StatusPending, StatusActive, true},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusCancelled, true},
		{StatusWaiting, StatusCancelled, true},
		{StatusActive, StatusWaiting, false},
		{StatusPending, StatusWaiting, false},
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusActive, false},
		{StatusCancelled, StatusCompleted, false},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
