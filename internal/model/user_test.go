package model

import "testing"

func TestValidRole(t *testing.T) {
	tests := []struct {
		role     string
		expected bool
	}{
		{RoleAdmin, true},
		{RoleUser, true},
		{"manager", false},
		{"", false},
		{"ADMIN", false},
	}

	for _, tt := range tests {
		if got := ValidRole(tt.role); got != tt.expected {
			t.Errorf("ValidRole(%q) = %v, want %v", tt.role, got, tt.expected)
		}
	}
}

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		pin     string
		wantErr bool
	}{
		{"", true},
		{"123", true},
		{"12345", true},
		{"12a4", true},
		{"１２３４", true},
		{" 123", true},
		{"1234", false},
		{"0000", false},
	}

	for _, tt := range tests {
		err := ValidatePIN(tt.pin)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePIN(%q) error = %v, wantErr %v", tt.pin, err, tt.wantErr)
		}
	}
}

func TestPrincipalActorAndOwnership(t *testing.T) {
	super := SuperAdmin()
	if super.ActorID() != nil {
		t.Error("super-admin should be recorded as a nil actor")
	}
	if !super.IsAdmin() {
		t.Error("super-admin must be an admin")
	}

	user := PrincipalFromUser(&User{ID: "u1", Name: "Ana", Role: RoleUser})
	if id := user.ActorID(); id == nil || *id != "u1" {
		t.Errorf("expected actor u1, got %v", id)
	}

	creator := "u1"
	other := "u2"
	if !user.Owns(&creator) {
		t.Error("user should own a trip they created")
	}
	if user.Owns(&other) {
		t.Error("user should not own someone else's trip")
	}
	if user.Owns(nil) {
		t.Error("regular user should not own a super-admin trip")
	}
	if !super.Owns(nil) {
		t.Error("super-admin should own trips with a nil creator")
	}
	if super.Owns(&creator) {
		t.Error("super-admin should not own a user's trip")
	}
}

func TestCheckDateRange(t *testing.T) {
	tests := []struct {
		start, end string
		ok         bool
		wantErr    bool
	}{
		{"2025-07-01", "2025-07-05", true, false},
		{"2025-07-01", "2025-07-01", true, false},
		{"2025-07-05", "2025-07-01", false, false},
		{"07/01/2025", "2025-07-01", false, true},
		{"2025-07-01", "", false, true},
	}

	for _, tt := range tests {
		ok, err := CheckDateRange(tt.start, tt.end)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckDateRange(%q, %q) error = %v, wantErr %v", tt.start, tt.end, err, tt.wantErr)
			continue
		}
		if ok != tt.ok {
			t.Errorf("CheckDateRange(%q, %q) = %v, want %v", tt.start, tt.end, ok, tt.ok)
		}
	}
}
