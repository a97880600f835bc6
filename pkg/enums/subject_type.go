package enums

import "fmt"

// SubjectType discriminates the two kinds of entities that can be assigned
// onboarding plans. Dropshippers and employees live in distinct tables but
// play the same role here.
type SubjectType string

const (
	SubjectTypeDropshipper SubjectType = "dropshipper"
	SubjectTypeEmployee    SubjectType = "employee"
)

var validSubjectTypes = []SubjectType{
	SubjectTypeDropshipper,
	SubjectTypeEmployee,
}

// IsValid checks whether the given type matches the canonical enum.
func (s SubjectType) IsValid() bool {
	for _, candidate := range validSubjectTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubjectType converts raw strings into SubjectType.
func ParseSubjectType(value string) (SubjectType, error) {
	for _, candidate := range validSubjectTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subject type %q", value)
}
