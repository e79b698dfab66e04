package prompt

import "errors"

// ErrNoChunks indicates prompt generation was requested with no input chunks.
var ErrNoChunks = errors.New("no chunks to generate prompts for")
