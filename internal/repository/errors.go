package repository

import "errors"

var (
	ErrNotFound  = errors.New("booking not found")
	ErrDuplicate = errors.New("booking already exists")
)
