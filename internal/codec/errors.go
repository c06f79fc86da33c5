package codec

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is matched by every decode failure.
var ErrInvalidToken = errors.New("invalid mod token")

type TokenEncodingError struct {
	Err error
}

func (e *TokenEncodingError) Error() string {
	return fmt.Sprintf("mod token is not valid text encoding: %v", e.Err)
}

func (e *TokenEncodingError) Unwrap() []error {
	return []error{ErrInvalidToken, e.Err}
}

type DecompressError struct {
	Err error
}

func (e *DecompressError) Error() string {
	return fmt.Sprintf("mod token payload cannot be decompressed: %v", e.Err)
}

func (e *DecompressError) Unwrap() []error {
	return []error{ErrInvalidToken, e.Err}
}

type FormatError struct {
	Segment string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("mod token entry %q is not in id|version form", e.Segment)
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidToken
}

type UnsupportedTokenVersionError struct {
	Prefix string
}

func (e *UnsupportedTokenVersionError) Error() string {
	return fmt.Sprintf("mod token version %q is not supported by this build", e.Prefix)
}

func (e *UnsupportedTokenVersionError) Unwrap() error {
	return ErrInvalidToken
}

// DelimiterError rejects an entry that would corrupt the token layout.
type DelimiterError struct {
	Index int
	Field string
	Value string
}

func (e *DelimiterError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("mod #%d has an empty %s", e.Index+1, e.Field)
	}
	return fmt.Sprintf("mod #%d %s %q contains a reserved character (%q or %q)", e.Index+1, e.Field, e.Value, fieldSeparator, entrySeparator)
}

var errInvalidUTF8 = errors.New("decoded payload is not UTF-8")
