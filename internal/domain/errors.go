package domain

import "errors"

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrInvalidReference  = errors.New("invalid reference")  // 400
	ErrInvalidTransition = errors.New("invalid transition") // 400
	ErrUnauthenticated   = errors.New("unauthenticated")    // 401
	ErrForbidden         = errors.New("forbidden")          // 403
	ErrNotFound          = errors.New("not found")          // 404
	ErrConflict          = errors.New("conflict")           // 409
)
