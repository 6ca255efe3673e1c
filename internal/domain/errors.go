package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNoTitle       = errors.New("no title heading found")
	ErrMalformedRow  = errors.New("malformed dividend row")
	ErrFetch         = errors.New("fetch failed")
)
