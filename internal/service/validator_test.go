package service

import (
	"errors"
	"testing"
)

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"plain datamatrix", "0104600000000001215Ndd7wz\x1d93dGVz", nil},
		{"gs tab lf cr allowed", "abc\x1d\t\n\rdef", nil},
		{"empty", "", nil},
		{"cyrillic letter", "0104600пром", ErrCodeCyrillic},
		{"escape byte", "abc\x1bdef", ErrCodeControl},
		{"nul byte", "abc\x00def", ErrCodeControl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCode(tt.code)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateCode(%q) = %v, want %v", tt.code, err, tt.want)
			}
		})
	}
}

func TestIsCommand(t *testing.T) {
	for _, cmd := range []string{CmdCompleteUnit, CmdCancelUnit, CmdLogout, CmdEnterCorrection, CmdExitCorrection} {
		if !IsCommand(cmd) {
			t.Errorf("IsCommand(%q) = false", cmd)
		}
	}
	for _, s := range []string{"", " CMD_LOGOUT", "CMD_LOGOUT ", "cmd_logout", "CMD_UNKNOWN"} {
		if IsCommand(s) {
			t.Errorf("IsCommand(%q) = true", s)
		}
	}
}

func TestIsSSCC(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"046100012300000010", true},
		{"000000000000000000", true},
		{"04610001230000001", false},   // 17 digits
		{"0461000123000000107", false}, // 19 digits
		{"04610001230000001x", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSSCC(tt.code); got != tt.want {
			t.Errorf("IsSSCC(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
