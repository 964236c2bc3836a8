package models

// RegistrationAction tags the outcome of one registration-state transition.
type RegistrationAction string

const (
	RegistrationActionRequestName          RegistrationAction = "request_name"
	RegistrationActionGreetWithName        RegistrationAction = "greet_with_name"
	RegistrationActionRequestEmail         RegistrationAction = "request_email"
	RegistrationActionCompleteRegistration RegistrationAction = "complete_registration"
	RegistrationActionShowInvalidEmail     RegistrationAction = "show_invalid_email"
	RegistrationActionNone                 RegistrationAction = "none"
)

// RegistrationResult is the outcome of processing one message through the
// registration state machine.
type RegistrationResult struct {
	Completed   bool
	ShouldReply bool
	Reply       string
	Action      RegistrationAction
}
