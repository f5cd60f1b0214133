package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrImageNotFound        = errors.New("image not found")
	ErrInvalidLocation      = errors.New("invalid location name")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidTag           = errors.New("invalid tag")
)
