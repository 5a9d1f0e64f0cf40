package qris

import "github.com/pkg/errors"

// Failure classes reported by the payload engine. Callers classify with
// errors.Is; the wrapped message carries the detail.
var (
	ErrMissingInput     = errors.New("missing input")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrValueTooLong     = errors.New("value too long")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrInvalidMode      = errors.New("invalid rewrite mode")
)
