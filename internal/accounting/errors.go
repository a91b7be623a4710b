package accounting

import "fmt"

// AuthenticationError is returned when no session could be opened
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Err)
	}
	return "authentication failed: " + e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// RemoteOperationError carries an error reported inside a successful response
type RemoteOperationError struct {
	Operation string
	Code      string
	Message   string
}

// Error returns the description supplied by the remote side.
func (e *RemoteOperationError) Error() string {
	return e.Message
}
