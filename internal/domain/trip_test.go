package domain

import "testing"

func TestCanTransitionTrip(t *testing.T) {
	cases := []struct {
		name string
		from TripStatus
		to   TripStatus
		want bool
	}{
		{"pending to started", TripStatusPending, TripStatusStarted, true},
		{"pending to cancelled", TripStatusPending, TripStatusCancelled, true},
		{"started to completed", TripStatusStarted, TripStatusCompleted, true},
		{"started to cancelled", TripStatusStarted, TripStatusCancelled, true},
		{"cannot skip pending to completed", TripStatusPending, TripStatusCompleted, false},
		{"cannot leave terminal completed", TripStatusCompleted, TripStatusStarted, false},
		{"cannot leave terminal cancelled", TripStatusCancelled, TripStatusStarted, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CanTransitionTrip(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransitionTrip(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}
