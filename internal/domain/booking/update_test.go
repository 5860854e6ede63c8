package booking

import (
	"errors"
	"testing"
)

func TestNewStatusUpdate(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		payment      string
		wantErr      error
		wantAssigned []Field
	}{
		{name: "empty", wantErr: ErrEmptyUpdate},
		{name: "bad_status", status: "archived", wantErr: ErrInvalidStatus},
		{name: "bad_payment", payment: "chargeback", wantErr: ErrInvalidPaymentStatus},
		{name: "bad_payment_with_good_status", status: "confirmed", payment: "x", wantErr: ErrInvalidPaymentStatus},
		{name: "status_only", status: "confirmed", wantAssigned: []Field{FieldStatus}},
		{name: "payment_only", payment: "paid", wantAssigned: []Field{FieldPaymentStatus}},
		{name: "both", status: "completed", payment: "refunded", wantAssigned: []Field{FieldStatus, FieldPaymentStatus}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewStatusUpdate(tt.status, tt.payment)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := u.Assignments()
			if len(got) != len(tt.wantAssigned) {
				t.Fatalf("got %d assignments, want %d", len(got), len(tt.wantAssigned))
			}
			for i, a := range got {
				if a.Field != tt.wantAssigned[i] {
					t.Fatalf("assignment %d field = %v, want %v", i, a.Field, tt.wantAssigned[i])
				}
				if a.Field.Column() == "" {
					t.Fatalf("assignment %d has no column", i)
				}
			}
		})
	}
}

func TestStatusUpdate_ApplyAndTransition(t *testing.T) {
	u, err := NewStatusUpdate("", "refunded")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// payment-only updates are allowed on terminal bookings
	if err := u.CheckTransition(StatusCancelled); err != nil {
		t.Fatalf("payment update on cancelled booking: %v", err)
	}

	b := Booking{Status: StatusCancelled, PaymentStatus: PaymentPaid}
	u.Apply(&b)
	if b.Status != StatusCancelled || b.PaymentStatus != PaymentRefunded {
		t.Fatalf("unexpected booking after apply: %+v", b)
	}

	reopen, _ := NewStatusUpdate("pending", "")
	if err := reopen.CheckTransition(StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
