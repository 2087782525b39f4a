package news

import "errors"

// ErrNotFound is returned when a single-article lookup yields nothing.
var ErrNotFound = errors.New("article not found")

// NotFoundMessage is the user-facing text for ErrNotFound.
const NotFoundMessage = "Article not found"

// NetworkError reports a transport failure or a non-success response.
// Error returns the human-readable message only; Op and Status carry the
// context for logs.
type NetworkError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Message returns the text a presentation layer should show for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotFound) {
		return NotFoundMessage
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Message != "" {
		return netErr.Message
	}
	return err.Error()
}
