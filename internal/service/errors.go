package service

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrProvider     = errors.New("provider error")
)

const (
	MsgRegistrationSuccessful = "Registration successful"
	MsgRegistrationFailed     = "Registration failed"
	MsgEmailAlreadyRegistered = "Email already registered"
	MsgInvalidCredentials     = "Invalid email or password"
	MsgNotAuthenticated       = "Not authenticated"
	MsgInvalidAuthCredentials = "Invalid authentication credentials"
	MsgLoggedOut              = "Successfully logged out"
	MsgInvalidRefreshToken    = "Invalid refresh token"
	MsgPasswordResetSent      = "If the email exists, a password reset link has been sent"
	MsgPasswordUpdated        = "Password updated successfully"
)

// AuthError is the single failure type returned by AuthService. Kind is one
// of ErrInvalidInput, ErrUnauthorized or ErrProvider; Detail is the message
// that may be shown to the caller.
type AuthError struct {
	Kind   error
	Detail string
	Cause  error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return e.Kind.Error() + ": " + e.Detail + ": " + e.Cause.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *AuthError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func invalidInput(detail string) *AuthError {
	return &AuthError{Kind: ErrInvalidInput, Detail: detail}
}

func unauthorized(detail string, cause error) *AuthError {
	return &AuthError{Kind: ErrUnauthorized, Detail: detail, Cause: cause}
}

func providerFailure(detail string, cause error) *AuthError {
	return &AuthError{Kind: ErrProvider, Detail: detail, Cause: cause}
}
