package app

import "errors"

var (
	// ErrPublicKeyRequired rejects submissions without a recipient key;
	// results can only ever exist encrypted to one.
	ErrPublicKeyRequired = errors.New("public key required")
	// ErrNoMessages rejects submissions with an empty chat.
	ErrNoMessages = errors.New("chat contains no messages")
)
