package service

import "errors"

// ValidationError 携带可直接返回给用户的提示信息。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

var (
	ErrUserNotFound       = errors.New("Email not registered.")
	ErrInvalidCredentials = errors.New("Invalid email or password.")
	ErrUserExists         = errors.New("User already exists")
	ErrInvalidToken       = errors.New("invalid token")
)
