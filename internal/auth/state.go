package auth

import "errors"

// State is a step of the authentication state machine.
type State int

const (
	StateStart State = iota
	StateBiometricPrompt
	StateBiometricFailed
	StatePasswordPrompt
	StateUnlocked
	StatePasswordRejected
	StateBiometryUnavailable
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateBiometricPrompt:
		return "biometric_prompt"
	case StateBiometricFailed:
		return "biometric_failed"
	case StatePasswordPrompt:
		return "password_prompt"
	case StateUnlocked:
		return "unlocked"
	case StatePasswordRejected:
		return "password_rejected"
	case StateBiometryUnavailable:
		return "biometry_unavailable"
	default:
		return "unknown"
	}
}

var (
	// ErrRejected is the outcome error for a wrong or cancelled password.
	ErrRejected = errors.New("wrong password")
	// ErrBiometryUnavailable is the outcome error when the device has no biometric verifier.
	ErrBiometryUnavailable = errors.New("biometry unavailable")
	// ErrBiometricFailed is returned by verifiers that could not verify the user.
	ErrBiometricFailed = errors.New("biometric verification failed")
)

// Outcome is the terminal result of one authentication run.
type Outcome struct {
	State    State
	Err      error // nil when unlocked
	Enrolled bool  // a new password was stored during this run
}

// Unlocked reports whether the run granted access.
func (o Outcome) Unlocked() bool {
	return o.State == StateUnlocked
}

// Dialog texts shown through the Prompter.
const (
	titleUnavailable   = "Biometry unavailable"
	messageUnavailable = "Your device is not configured for biometric authentication."
	titleFailed        = "Authentication failed"
	messageFailed      = "You could not be verified; please try again or use your password."
	titleRejected      = "Wrong password"
	messageRejected    = "The password you entered is not correct."
)
