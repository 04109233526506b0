package entities

// ValidationState is the server-reported state of an async validation pass
type ValidationState string

const (
	ValidationStatePending ValidationState = "pending"
	ValidationStatePassed  ValidationState = "passed"
	ValidationStateFixed   ValidationState = "fixed"
	ValidationStateError   ValidationState = "error"
)

// Terminal reports whether the state stops the validation poll
func (s ValidationState) Terminal() bool {
	return s != ValidationStatePending && s != ""
}

// ValidationStatus is the payload of the validation-status poll
type ValidationStatus struct {
	Status          ValidationState `json:"status"`
	ViolationsCount int             `json:"violations_count"`
	Error           string          `json:"error,omitempty"`
}
