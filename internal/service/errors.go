package service

import "errors"

// Ошибки уровня домена. Контроллер показывает их пользователю.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrAlreadyExists       = errors.New("already exists")
	ErrBadRequest          = errors.New("bad request")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrActiveSessionExists = errors.New("instructor already has an open session")
	ErrNoActiveSession     = errors.New("no open session")
)
