package service

import "errors"

// Command tokens: closed vocabulary, matched by exact equality before
// any trimming. Command scans bypass the code validator.
const (
	CmdCompleteUnit    = "CMD_COMPLETE_UNIT"
	CmdCancelUnit      = "CMD_CANCEL_UNIT"
	CmdLogout          = "CMD_LOGOUT"
	CmdEnterCorrection = "CMD_ENTER_CORRECTION_MODE"
	CmdExitCorrection  = "CMD_EXIT_CORRECTION_MODE"
)

// IsCommand reports whether the scan is a command token.
func IsCommand(s string) bool {
	switch s {
	case CmdCompleteUnit, CmdCancelUnit, CmdLogout, CmdEnterCorrection, CmdExitCorrection:
		return true
	}
	return false
}

// Stable validator rejection reasons.
var (
	ErrCodeCyrillic = errors.New("code contains a Cyrillic character")
	ErrCodeControl  = errors.New("code contains a forbidden control character")
)

// ValidateCode checks a scanned data code for scanner-layout artifacts.
// A Cyrillic letter means the operator's keyboard layout swallowed the
// code; control characters below 32 are rejected except TAB, LF, CR and
// the GS separator that is legal inside a DataMatrix. Business rules
// live in the processor, not here.
func ValidateCode(code string) error {
	for _, r := range code {
		if r >= 0x0400 && r <= 0x04FF {
			return ErrCodeCyrillic
		}
		if r < 32 {
			switch r {
			case 9, 10, 13, 29: // TAB LF CR GS
			default:
				return ErrCodeControl
			}
		}
	}
	return nil
}

// IsSSCC reports whether the code has the Serial Shipping Container
// Code shape: exactly 18 decimal digits. The check digit is not
// verified here; the marking pipeline producing SSCCs owns that.
func IsSSCC(code string) bool {
	if len(code) != 18 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
