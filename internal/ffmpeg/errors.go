package ffmpeg

import "errors"

// ErrNotFound indicates the ffmpeg binary is not installed or not on PATH.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrTimeout is returned when ffmpeg does not exit within the graceful shutdown timeout.
var ErrTimeout = errors.New("ffmpeg did not exit within timeout")

// ErrProbeFailed indicates media duration could not be determined from ffmpeg output.
var ErrProbeFailed = errors.New("could not probe media duration")
