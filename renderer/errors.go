package renderer

import "errors"

var (
	ErrWorldNotDefined = errors.New("renderer: no world defined")
	ErrUpdaterClosed   = errors.New("renderer: update worker closed")
)
