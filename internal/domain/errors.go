package domain

import "errors"

var (
	ErrTableNotFound = errors.New("interaction table not found")
	ErrEmptyTable    = errors.New("interaction table is empty")
)
