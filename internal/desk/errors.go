package desk

import (
	"errors"
	"fmt"
)

// BridgeError represents a failure in the export/absorb protocol.
//
// Bridge errors include:
//   - Nothing staged: export called with an empty staging set
//   - No pending block: absorb called with no outstanding export
//   - No marker: pasted text carries no bridge marker
//   - Key mismatch: the pasted marker's key is not the outstanding one
//
// BridgeError includes structured fields for diagnostics; the CLI surfaces
// Code as a stable token in error messages.
type BridgeError struct {
	// Code identifies the error category.
	Code BridgeErrorCode

	// Message is a human-readable description.
	Message string

	// StreamID identifies the affected stream.
	StreamID string

	// WantKey and GotKey carry both sides of a key mismatch.
	WantKey string
	GotKey  string
}

// BridgeErrorCode categorizes bridge protocol errors.
type BridgeErrorCode string

const (
	// ErrCodeNothingStaged indicates an export with no staged entries.
	ErrCodeNothingStaged BridgeErrorCode = "NOTHING_STAGED"

	// ErrCodeNoPendingBlock indicates an absorb with no outstanding export.
	ErrCodeNoPendingBlock BridgeErrorCode = "NO_PENDING_BLOCK"

	// ErrCodeNoMarker indicates pasted text without a bridge marker.
	ErrCodeNoMarker BridgeErrorCode = "NO_MARKER"

	// ErrCodeKeyMismatch indicates a marker key that is not the
	// outstanding block's key.
	ErrCodeKeyMismatch BridgeErrorCode = "KEY_MISMATCH"
)

// Error implements the error interface.
func (e *BridgeError) Error() string {
	if e.WantKey != "" || e.GotKey != "" {
		return fmt.Sprintf("%s: %s (want=%s, got=%s)", e.Code, e.Message, e.WantKey, e.GotKey)
	}
	if e.StreamID != "" {
		return fmt.Sprintf("%s: %s (stream=%s)", e.Code, e.Message, e.StreamID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNothingStaged returns true if err is a nothing-staged bridge error.
// Uses errors.As to handle wrapped errors.
func IsNothingStaged(err error) bool {
	return hasBridgeCode(err, ErrCodeNothingStaged)
}

// IsNoPendingBlock returns true if err is a no-pending-block bridge error.
func IsNoPendingBlock(err error) bool {
	return hasBridgeCode(err, ErrCodeNoPendingBlock)
}

// IsNoMarker returns true if err is a no-marker bridge error.
func IsNoMarker(err error) bool {
	return hasBridgeCode(err, ErrCodeNoMarker)
}

// IsKeyMismatch returns true if err is a key-mismatch bridge error.
func IsKeyMismatch(err error) bool {
	return hasBridgeCode(err, ErrCodeKeyMismatch)
}

func hasBridgeCode(err error, code BridgeErrorCode) bool {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// NewNothingStagedError creates a BridgeError for an export over an empty
// staging set.
func NewNothingStagedError(streamID string) *BridgeError {
	return &BridgeError{
		Code:     ErrCodeNothingStaged,
		Message:  "no entries staged for export",
		StreamID: streamID,
	}
}

// NewNoPendingBlockError creates a BridgeError for an absorb with no
// outstanding export.
func NewNoPendingBlockError(streamID string) *BridgeError {
	return &BridgeError{
		Code:     ErrCodeNoPendingBlock,
		Message:  "no pending export awaits a reply",
		StreamID: streamID,
	}
}

// NewNoMarkerError creates a BridgeError for pasted text without a marker.
func NewNoMarkerError(streamID string) *BridgeError {
	return &BridgeError{
		Code:     ErrCodeNoMarker,
		Message:  "pasted text contains no bridge marker",
		StreamID: streamID,
	}
}

// NewKeyMismatchError creates a BridgeError naming both keys.
func NewKeyMismatchError(streamID, want, got string) *BridgeError {
	return &BridgeError{
		Code:     ErrCodeKeyMismatch,
		Message:  "marker key does not match the outstanding export",
		StreamID: streamID,
		WantKey:  want,
		GotKey:   got,
	}
}
