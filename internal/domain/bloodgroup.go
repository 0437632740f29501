package domain

import "fmt"

// BloodGroup is one of the eight canonical ABO/Rh groups.
type BloodGroup string

const (
	APos  BloodGroup = "A+"
	ANeg  BloodGroup = "A-"
	BPos  BloodGroup = "B+"
	BNeg  BloodGroup = "B-"
	ABPos BloodGroup = "AB+"
	ABNeg BloodGroup = "AB-"
	OPos  BloodGroup = "O+"
	ONeg  BloodGroup = "O-"
)

// ParseBloodGroup validates a blood group string from the wire.
func ParseBloodGroup(s string) (BloodGroup, error) {
	switch BloodGroup(s) {
	case APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg:
		return BloodGroup(s), nil
	}
	return "", ValidationError{Reason: fmt.Sprintf("invalid blood group %q", s)}
}
