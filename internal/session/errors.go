package session

import "errors"

var (
	// ErrNotFound indicates an unknown session id.
	ErrNotFound = errors.New("session not found")

	// ErrStageOrder indicates an attempt to skip a pipeline stage.
	ErrStageOrder = errors.New("stage out of order")
)
