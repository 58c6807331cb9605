package domain

import "errors"

// Business errors, mapped to HTTP statuses in the transport layer.
var (
	ErrBadParams        = errors.New("bad_params")         // 400
	ErrUnauth           = errors.New("unauthorized")       // 401
	ErrForbidden        = errors.New("forbidden")          // 403
	ErrNotFound         = errors.New("not_found")          // 404
	ErrMethodNotAllowed = errors.New("method_not_allowed") // 405
	ErrNotImplemented   = errors.New("not_implemented")    // 501
	ErrUpstream         = errors.New("upstream")           // 502
	ErrUnexpected       = errors.New("unexpected")         // 500
)

// Envelope error codes.
const (
	ErrCodeBadParams        = 400
	ErrCodeUnauth           = 401
	ErrCodeForbidden        = 403
	ErrCodeNotFound         = 404
	ErrCodeMethodNotAllowed = 405
	ErrCodeUnexpected       = 500
	ErrCodeNotImplemented   = 501
	ErrCodeUpstream         = 502
)
