package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidImage       = errors.New("invalid image")
	ErrInvalidAspectRatio = errors.New("invalid aspect ratio")
	ErrUnknownStyle       = errors.New("unknown style")
	ErrIndexOutOfRange    = errors.New("index out of range")
)
