package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrSessionInactive   = errors.New("session revoked or expired")
	ErrUnknownCollection = errors.New("unknown collection")
)
