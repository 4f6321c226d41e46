package domain

import "github.com/pkg/errors"

var (
	// ErrTokenNotFound is returned when token metadata cannot be resolved.
	ErrTokenNotFound = errors.New("token not found")
	// ErrKeyNotFound is returned for keys absent from the key-value store.
	ErrKeyNotFound = errors.New("key not found")
	// ErrUnknownMutation is returned for mutation types without a reducer.
	ErrUnknownMutation = errors.New("unknown mutation")
	// ErrInvalidAddress is returned for malformed wallet addresses.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNotFound is the generic lookup miss returned by consumers.
	ErrNotFound = errors.New("not found")
	// ErrWalletNotConnected is returned by user actions that need a connected wallet.
	ErrWalletNotConnected = errors.New("wallet not connected")
	// ErrNotConfigured is returned when an optional backend is not configured.
	ErrNotConfigured = errors.New("not configured")
	// ErrInvalidAmount is returned for transfers of a non-positive amount.
	ErrInvalidAmount = errors.New("invalid amount")
)
