package auth

// Failure names the rule an auth operation failed on. The zero value means success.
type Failure int

const (
	FailureNone Failure = iota
	FailureUsernameRequired
	FailureUsernameFormat
	FailurePasswordRequired
	FailurePasswordTooShort
	FailurePasswordNoLower
	FailurePasswordNoUpper
	FailurePasswordNoDigit
	FailurePasswordNoSpecial
	FailureUsernameTaken
	FailureInvalidCredentials
	FailurePasswordTooLong
)

var failureMessages = map[Failure]string{
	FailureUsernameRequired:   "Username is required.",
	FailureUsernameFormat:     "Username must be 3-20 characters and only contain letters, numbers, and underscores.",
	FailurePasswordRequired:   "Password is required.",
	FailurePasswordTooShort:   "Password must be at least 8 characters.",
	FailurePasswordNoLower:    "Password must contain a lowercase letter.",
	FailurePasswordNoUpper:    "Password must contain an uppercase letter.",
	FailurePasswordNoDigit:    "Password must contain a number.",
	FailurePasswordNoSpecial:  "Password must contain a special character.",
	FailureUsernameTaken:      "Username already exists.",
	FailureInvalidCredentials: "Invalid username or password.",
	FailurePasswordTooLong:    "Password must be at most 72 bytes.",
}

// Message is the human-readable text shown to the user.
func (f Failure) Message() string {
	return failureMessages[f]
}

func (f Failure) Error() string {
	return f.Message()
}

// Result is the outcome of Login or Register: either OK with the new identity,
// or a Failure. The zero Result is neither and accompanies a non-nil error.
type Result struct {
	Identity Identity
	Failure  Failure
}

func (r Result) OK() bool {
	return r.Failure == FailureNone && r.Identity.Username != ""
}

func succeeded(id Identity) Result {
	return Result{Identity: id}
}

func failed(f Failure) Result {
	return Result{Failure: f}
}
