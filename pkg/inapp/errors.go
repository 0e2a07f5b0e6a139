package inapp

import "errors"

var (
	ErrMissingID = errors.New("inapp: notification id is required")
	ErrStorage   = errors.New("inapp: storage unavailable")
)
