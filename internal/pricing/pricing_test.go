package pricing

import "testing"

func TestCompute(t *testing.T) {
	in := Inputs{
		DistanceKm:      10,
		DurationSec:     600, // 10 minutes
		BaseFare:        2.0,
		PerKmRate:       1.5,
		PerMinRate:      0.25,
		SurgeMultiplier: 1.5,
		Discount:        1.0,
	}
	fare := Compute(in)

	wantDistanceFare := 15.0
	wantTimeFare := 2.5
	wantSubtotal := 19.5
	wantSurgeAmount := 9.75
	wantTotalFare := 29.25
	wantFinalFare := 28.25

	if fare.DistanceFare != wantDistanceFare {
		t.Errorf("DistanceFare = %v, want %v", fare.DistanceFare, wantDistanceFare)
	}
	if fare.TimeFare != wantTimeFare {
		t.Errorf("TimeFare = %v, want %v", fare.TimeFare, wantTimeFare)
	}
	if fare.Subtotal != wantSubtotal {
		t.Errorf("Subtotal = %v, want %v", fare.Subtotal, wantSubtotal)
	}
	if fare.SurgeAmount != wantSurgeAmount {
		t.Errorf("SurgeAmount = %v, want %v", fare.SurgeAmount, wantSurgeAmount)
	}
	if fare.TotalFare != wantTotalFare {
		t.Errorf("TotalFare = %v, want %v", fare.TotalFare, wantTotalFare)
	}
	if fare.FinalFare != wantFinalFare {
		t.Errorf("FinalFare = %v, want %v", fare.FinalFare, wantFinalFare)
	}
	wantPlatformFee := round2(wantFinalFare * 0.20)
	if fare.PlatformFee != wantPlatformFee {
		t.Errorf("PlatformFee = %v, want %v", fare.PlatformFee, wantPlatformFee)
	}
	wantDriverEarnings := round2(wantFinalFare - wantPlatformFee)
	if fare.DriverEarnings != wantDriverEarnings {
		t.Errorf("DriverEarnings = %v, want %v", fare.DriverEarnings, wantDriverEarnings)
	}
}

func TestComputeDiscountNeverNegative(t *testing.T) {
	in := Inputs{
		DistanceKm: 1, BaseFare: 2, PerKmRate: 1, SurgeMultiplier: 1,
		Discount: 1000,
	}
	fare := Compute(in)
	if fare.FinalFare != 0 {
		t.Errorf("FinalFare = %v, want 0 when discount exceeds total", fare.FinalFare)
	}
	if fare.DriverEarnings != 0 {
		t.Errorf("DriverEarnings = %v, want 0", fare.DriverEarnings)
	}
}

func TestComputeNoSurge(t *testing.T) {
	in := Inputs{DistanceKm: 5, BaseFare: 3, PerKmRate: 2, SurgeMultiplier: 1}
	fare := Compute(in)
	if fare.SurgeAmount != 0 {
		t.Errorf("SurgeAmount = %v, want 0 when SurgeMultiplier is 1", fare.SurgeAmount)
	}
}

func TestTax(t *testing.T) {
	cases := []struct {
		finalFare float64
		want      float64
	}{
		{100, 18},
		{0, 0},
		{10.5, 1.89},
	}
	for _, tc := range cases {
		if got := Tax(tc.finalFare); got != tc.want {
			t.Errorf("Tax(%v) = %v, want %v", tc.finalFare, got, tc.want)
		}
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{2.344, 2.34},
		{2.346, 2.35},
		{3, 3},
	}
	for _, tc := range cases {
		if got := round2(tc.in); got != tc.want {
			t.Errorf("round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
