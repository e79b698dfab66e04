package transcribe

import "errors"

// ErrUnsupportedFormat indicates the audio file extension is not accepted.
var ErrUnsupportedFormat = errors.New("unsupported audio format")
