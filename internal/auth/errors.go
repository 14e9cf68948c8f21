package auth

import "errors"

var (
	ErrUnauthorized   = errors.New("auth: unauthorized")
	ErrNotFound       = errors.New("auth: not found")
	ErrForbidden      = errors.New("auth: forbidden")
	ErrInvalidInput   = errors.New("auth: invalid input")
	ErrAlreadyExists  = errors.New("auth: already exists")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrNotImplemented = errors.New("auth: not implemented")
)
