package imagegen

import "errors"

// ErrNoPrompts indicates image generation was requested with no prompts.
var ErrNoPrompts = errors.New("no prompts to generate images for")
