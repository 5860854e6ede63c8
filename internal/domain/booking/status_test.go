package booking

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusCancelled, StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatus_Availability(t *testing.T) {
	if StatusCancelled.BlocksAvailability() {
		t.Fatalf("cancelled bookings must not block availability")
	}
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCompleted} {
		if !s.BlocksAvailability() {
			t.Fatalf("%s should block availability", s)
		}
	}
	if StatusCompleted.IsActive() || !StatusConfirmed.IsActive() {
		t.Fatalf("unexpected IsActive results")
	}
}
