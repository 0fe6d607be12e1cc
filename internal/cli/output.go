package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/koipond/inkwell/internal/desk"
	"github.com/koipond/inkwell/internal/directive"
	"github.com/koipond/inkwell/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failure (missing records, bridge protocol errors, failed verification)
	ExitCommandError = 2 // Usage or environment error (bad flags, unreadable config or database)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeConfig     = "E002" // Configuration load or validation failure
	ErrCodeDatabase   = "E003" // Database open failure
	ErrCodeDirectives = "E004" // Directive definitions failed to load
	ErrCodeNotFound   = "E005" // Referenced record not found
	ErrCodeInput      = "E006" // Invalid command input
	ErrCodeReadFailed = "E007" // Input file or stdin read error
	ErrCodeClipboard  = "E008" // Clipboard write failed
	ErrCodeIntegrity  = "E009" // Version chain or checksum verification failure

	// Bridge protocol errors
	ErrCodeNothingStaged    = "E101" // Export with an empty staging set
	ErrCodeNoPendingBlock   = "E102" // Absorb with no outstanding export
	ErrCodeNoMarker         = "E103" // Pasted text has no bridge marker
	ErrCodeKeyMismatch      = "E104" // Marker key does not match the outstanding export
	ErrCodeUnknownDirective = "E105" // Directive name has no definition
)

// ClassifyError maps an operation error to its stable error code.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case desk.IsNothingStaged(err):
		return ErrCodeNothingStaged
	case desk.IsNoPendingBlock(err):
		return ErrCodeNoPendingBlock
	case desk.IsNoMarker(err):
		return ErrCodeNoMarker
	case desk.IsKeyMismatch(err):
		return ErrCodeKeyMismatch
	case errors.Is(err, directive.ErrUnknown):
		return ErrCodeUnknownDirective
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// opError wraps a desk/store error as an operation failure (exit code 1),
// tagged with its stable error code.
func opError(err error) *ExitError {
	return WrapExitError(ExitFailure, ClassifyError(err), err)
}

// cmdError wraps a usage or environment failure (exit code 2) with its
// stable error code.
func cmdError(code, message string, err error) *ExitError {
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// printJSON writes data wrapped in the standard response envelope.
func printJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: data})
}
