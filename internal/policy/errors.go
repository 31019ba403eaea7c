package policy

import "errors"

// Sentinel errors, meant for use with errors.Is. Kept in one small
// file, separate from the types that raise them.
var (
	ErrConfigNotFound        = errors.New("policy: file not found")
	ErrConfigRead            = errors.New("policy: read failed")
	ErrInvalidPattern        = errors.New("policy: invalid command pattern")
	ErrUnknownDirective      = errors.New("policy: unknown directive")
	ErrMainFileOnlyDirective = errors.New("policy: directive only valid in main file")
	ErrAmbiguousAction       = errors.New("policy: ambiguous action")
)
