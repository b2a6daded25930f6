package models

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"student", RoleStudent, false},
		{"counselor", RoleCounselor, false},
		{"admin", RoleAdmin, false},
		{"Admin", RoleAdmin, false},
		{"  student ", RoleStudent, false},
		{"superadmin", "", true},
		{"", "", true},
		{"faculty", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range Roles() {
		if !role.Valid() {
			t.Errorf("Roles() returned invalid role %q", role)
		}
	}
	if Role("root").Valid() {
		t.Error("unknown role must not be valid")
	}
}

func TestUserBeforeSaveRejectsUnknownRole(t *testing.T) {
	user := &User{ID: "01HTEST", Name: "X", Email: "x@example.com", Role: Role("root")}
	if err := user.BeforeSave(nil); err == nil {
		t.Error("an unknown role must not reach the users table")
	}

	user.Role = RoleCounselor
	if err := user.BeforeSave(nil); err != nil {
		t.Errorf("a known role must save: %v", err)
	}
}

func TestEnquiryStatusTransitions(t *testing.T) {
	tests := []struct {
		from EnquiryStatus
		to   EnquiryStatus
		want bool
	}{
		{EnquiryPending, EnquiryResponded, true},
		{EnquiryPending, EnquiryClosed, true},
		{EnquiryResponded, EnquiryClosed, true},
		{EnquiryResponded, EnquiryPending, false},
		{EnquiryClosed, EnquiryResponded, false},
		{EnquiryClosed, EnquiryPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("EnquiryStatus(%s).CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEnrollmentStatusTransitions(t *testing.T) {
	tests := []struct {
		from EnrollmentStatus
		to   EnrollmentStatus
		want bool
	}{
		{EnrollmentSubmitted, EnrollmentUnderReview, true},
		{EnrollmentSubmitted, EnrollmentApproved, true},
		{EnrollmentSubmitted, EnrollmentRejected, true},
		{EnrollmentUnderReview, EnrollmentApproved, true},
		{EnrollmentUnderReview, EnrollmentRejected, true},
		{EnrollmentApproved, EnrollmentUnderReview, false},
		{EnrollmentApproved, EnrollmentRejected, false},
		{EnrollmentRejected, EnrollmentSubmitted, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("EnrollmentStatus(%s).CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEnrollmentProgress(t *testing.T) {
	tests := []struct {
		status EnrollmentStatus
		want   int
	}{
		{EnrollmentSubmitted, 25},
		{EnrollmentUnderReview, 50},
		{EnrollmentApproved, 100},
		{EnrollmentRejected, 100},
		{EnrollmentStatus("bogus"), 0},
	}

	for _, tt := range tests {
		if got := tt.status.Progress(); got != tt.want {
			t.Errorf("EnrollmentStatus(%s).Progress() = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentPending, PaymentApproved, true},
		{PaymentPending, PaymentRejected, true},
		{PaymentApproved, PaymentRejected, false},
		{PaymentRejected, PaymentPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("PaymentStatus(%s).CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPaymentMethodValid(t *testing.T) {
	if !PaymentOnline.Valid() || !PaymentOffline.Valid() {
		t.Error("known payment methods must be valid")
	}
	if PaymentMethod("cheque").Valid() {
		t.Error("unknown payment method must not be valid")
	}
}
