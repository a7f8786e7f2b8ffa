package enums

import "fmt"

// CountSessionStep identifies the wizard step a reconciliation session is on.
type CountSessionStep string

const (
	CountSessionStepFilters CountSessionStep = "filters"
	CountSessionStepCount   CountSessionStep = "count"
	CountSessionStepReview  CountSessionStep = "review"
)

var validCountSessionSteps = []CountSessionStep{
	CountSessionStepFilters,
	CountSessionStepCount,
	CountSessionStepReview,
}

// String implements fmt.Stringer.
func (s CountSessionStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CountSessionStep.
func (s CountSessionStep) IsValid() bool {
	for _, candidate := range validCountSessionSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCountSessionStep converts raw input into a CountSessionStep.
func ParseCountSessionStep(value string) (CountSessionStep, error) {
	for _, candidate := range validCountSessionSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid count session step %q", value)
}
