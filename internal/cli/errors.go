package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrGroqKeyMissing indicates GROQ_API_KEY environment variable is not set.
	ErrGroqKeyMissing = errors.New("GROQ_API_KEY environment variable not set")

	// ErrHFTokenMissing indicates HF_TOKEN environment variable is not set.
	ErrHFTokenMissing = errors.New("HF_TOKEN environment variable not set")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrNoImagesFound indicates an images directory contains no usable images.
	ErrNoImagesFound = errors.New("no images found")
)
