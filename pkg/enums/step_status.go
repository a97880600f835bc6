package enums

import "fmt"

// StepStatus is the closed set of progress states an assigned step moves
// through. Transitions are unrestricted: an admin may push a step to any
// status, including back to open, to correct a mistaken update.
type StepStatus string

const (
	StepStatusOpen      StepStatus = "open"
	StepStatusInProcess StepStatus = "in_process"
	StepStatusCompleted StepStatus = "completed"
)

var validStepStatuses = []StepStatus{
	StepStatusOpen,
	StepStatusInProcess,
	StepStatusCompleted,
}

// IsValid checks whether the given status matches the canonical enum.
func (s StepStatus) IsValid() bool {
	for _, candidate := range validStepStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStepStatus converts raw strings into StepStatus, rejecting anything
// outside the three-value enum.
func ParseStepStatus(value string) (StepStatus, error) {
	for _, candidate := range validStepStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid step status %q", value)
}
