package auth

import "errors"

// ErrUserExists indicates the username or email is already registered.
var ErrUserExists = errors.New("username or email already exists")

// ErrInvalidCredentials covers both an unknown identifier and a wrong
// password. The two cases are indistinguishable to the caller so the
// response cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports the first field-level rule a request violated.
// Message is client-facing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidInput(message string) error {
	return &ValidationError{Message: message}
}
