package sml

import "errors"

// Domain errors for SML decoding.
var (
	// ErrChecksum is returned when a frame's CRC-16/X-25 does not match.
	ErrChecksum = errors.New("sml: frame checksum mismatch")

	// ErrInvalidFrame is returned when a frame contains an unknown escape
	// sequence or an impossible fill count.
	ErrInvalidFrame = errors.New("sml: invalid frame")

	// ErrFrameTooLarge is returned when no end sequence is seen within the
	// maximum frame size.
	ErrFrameTooLarge = errors.New("sml: frame too large")

	// ErrMalformed is returned when the TLV encoding of a file is broken.
	ErrMalformed = errors.New("sml: malformed data")

	// ErrUnexpectedType is returned when a decoded element does not have the
	// type the message structure requires.
	ErrUnexpectedType = errors.New("sml: unexpected element type")
)
