package domain

import "testing"

func TestCanTransitionRide(t *testing.T) {
	cases := []struct {
		name string
		from RideStatus
		to   RideStatus
		want bool
	}{
		{"searching to matched", RideStatusSearching, RideStatusMatched, true},
		{"searching to failed", RideStatusSearching, RideStatusFailed, true},
		{"matched to arriving", RideStatusMatched, RideStatusDriverArriving, true},
		{"arriving to arrived", RideStatusDriverArriving, RideStatusArrived, true},
		{"arrived to in progress", RideStatusArrived, RideStatusInProgress, true},
		{"in progress to completed", RideStatusInProgress, RideStatusCompleted, true},
		{"cannot skip matched to arrived", RideStatusMatched, RideStatusArrived, false},
		{"cannot leave terminal completed", RideStatusCompleted, RideStatusInProgress, false},
		{"cannot go backwards", RideStatusArrived, RideStatusMatched, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CanTransitionRide(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransitionRide(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestCanCancelRide(t *testing.T) {
	cases := []struct {
		status RideStatus
		want   bool
	}{
		{RideStatusSearching, true},
		{RideStatusMatched, true},
		{RideStatusDriverArriving, true},
		{RideStatusArrived, true},
		{RideStatusInProgress, false},
		{RideStatusCompleted, false},
		{RideStatusCancelled, false},
		{RideStatusFailed, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			t.Parallel()
			if got := CanCancelRide(tc.status); got != tc.want {
				t.Errorf("CanCancelRide(%s) = %v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestRideStatusIsTerminal(t *testing.T) {
	cases := []struct {
		status RideStatus
		want   bool
	}{
		{RideStatusSearching, false},
		{RideStatusMatched, false},
		{RideStatusInProgress, false},
		{RideStatusCompleted, true},
		{RideStatusCancelled, true},
		{RideStatusFailed, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			t.Parallel()
			if got := tc.status.IsTerminal(); got != tc.want {
				t.Errorf("%s.IsTerminal() = %v, want %v", tc.status, got, tc.want)
			}
		})
	}
}
