package auth

import "fmt"

// InvalidCredentialsError reports a failed username/password check. The
// message never says which half was wrong.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string { return "Incorrect username or password" }

// InvalidTokenError reports a token that failed verification. Reason is
// for logs only; the message stays generic.
type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string { return "Could not validate credentials" }

// InactiveUserError reports a disabled account.
type InactiveUserError struct {
	Username string
}

func (e *InactiveUserError) Error() string { return "Inactive user" }

// InsufficientPermissionsError reports a missing scope.
type InsufficientPermissionsError struct {
	Scope string
}

func (e *InsufficientPermissionsError) Error() string {
	return fmt.Sprintf("Not enough permissions. Required scope: %s", e.Scope)
}

// UserExistsError reports a username collision on user creation.
type UserExistsError struct {
	Username string
}

func (e *UserExistsError) Error() string { return "Username already registered" }
