package protocol

import "errors"

// ErrUnsupportedPlatform indicates a collaborator cannot serve the requested
// platform. Always fatal.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// TransientError marks a collaborator failure as retryable. Collaborator
// implementations wrap timeouts and environment-setup failures with it; all
// unwrapped errors are treated as fatal at the phase adapter boundary.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps an error as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &TransientError{Err: err}
}

// IsTransient checks whether an error is marked retryable.
func IsTransient(err error) bool {
	var transient *TransientError

	return errors.As(err, &transient)
}
