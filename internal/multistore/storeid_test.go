package multistore

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateModuleID_Valid(t *testing.T) {
	for _, id := range []string{"a-v-a", "chef-bot", "a", "bot2", "cau-bot-2"} {
		if err := ValidateModuleID(id); err != nil {
			t.Errorf("ValidateModuleID(%q) = %v, want nil", id, err)
		}
	}
}

func TestValidateModuleID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"uppercase", "ChefBot"},
		{"underscore", "chef_bot"},
		{"leading hyphen", "-bot"},
		{"trailing hyphen", "bot-"},
		{"nested", "org/bot"},
		{"traversal", ".."},
		{"space", "chef bot"},
		{"too long", strings.Repeat("a", MaxModuleIDLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateModuleID(tt.id); !errors.Is(err, ErrInvalidModuleID) {
				t.Errorf("ValidateModuleID(%q) = %v, want ErrInvalidModuleID", tt.id, err)
			}
		})
	}
}

func TestValidateModuleID_Empty(t *testing.T) {
	err := ValidateModuleID("")
	if !errors.Is(err, ErrInvalidModuleID) {
		t.Fatalf("expected ErrInvalidModuleID, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected error message to contain 'empty', got %q", err.Error())
	}
}

func TestValidateModuleID_MaxLength(t *testing.T) {
	if err := ValidateModuleID(strings.Repeat("a", MaxModuleIDLength)); err != nil {
		t.Errorf("expected nil at max length, got %v", err)
	}
}
