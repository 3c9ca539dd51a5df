package table

import "errors"

var (
	ErrIndexOutOfRange = errors.New("table: index out of range")
	ErrBadShape        = errors.New("table: non-positive dimension not allowed")
)
