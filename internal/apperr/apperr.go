// Package apperr carries an HTTP status alongside an error message, the way
// the reference backend's HTTPException does, so policy and approval
// failures can be translated into the right response code at the transport
// boundary without every layer importing net/http.
package apperr

import "fmt"

// Error pairs an HTTP status code with a message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an *Error with a formatted message.
func New(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error      { return New(400, format, args...) }
func Unauthorized(format string, args ...any) *Error    { return New(401, format, args...) }
func Forbidden(format string, args ...any) *Error       { return New(403, format, args...) }
func NotFound(format string, args ...any) *Error        { return New(404, format, args...) }
func Internal(format string, args ...any) *Error        { return New(500, format, args...) }

// As extracts an *Error from err, returning (nil, false) if err is not one.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}
