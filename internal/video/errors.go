package video

import "errors"

// ErrEmptyPlan indicates muxing was requested with no clips.
var ErrEmptyPlan = errors.New("empty clip plan")

// ErrEncodeFailed indicates ffmpeg failed to encode the output file.
var ErrEncodeFailed = errors.New("video encoding failed")
