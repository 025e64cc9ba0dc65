// Package errors provides standardized error types for the apachedev CLI tool.
//
// The errors package defines domain-specific error types that enable
// structured error handling and consistent error messages throughout
// the application.
//
// # Error Types
//
// SetupError is the primary error type, containing:
//   - Code: Categorizes the error (PLATFORM, BREW, HTTPD, etc.)
//   - Message: Human-readable error description
//   - Path: The file or resource involved (if applicable)
//   - Err: The underlying wrapped error (if any)
//
// # Sentinel Errors
//
// Common error scenarios have pre-defined sentinel errors:
//
//	errors.ErrUnsupportedOS   // not running on macOS
//	errors.ErrBrewNotFound    // Homebrew is not installed
//	errors.ErrCertNotTrusted  // certificate not in the System keychain
//	errors.ErrRunningAsRoot   // tool invoked with euid 0
//
// # Usage
//
// Creating domain-specific errors:
//
//	// A config file that should exist does not
//	return errors.NotFound(path)
//
//	// Validation error
//	return errors.Validation("http port must be between 1 and 65535")
//
//	// Wrapping an underlying error
//	return errors.Wrap(errors.ErrCodeBrew, "brew install failed", err)
//
// # Error Checking
//
// Use errors.Is for sentinel error comparison:
//
//	if errors.Is(err, errors.ErrBrewNotFound) {
//	    // Suggest installing Homebrew
//	}
//
// Use errors.As for type assertion:
//
//	var setupErr *errors.SetupError
//	if errors.As(err, &setupErr) {
//	    fmt.Printf("Error code: %s, Path: %s\n", setupErr.Code, setupErr.Path)
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"   // File or resource not found
	ErrCodeValidation ErrorCode = "VALIDATION"  // Input validation failed
	ErrCodePermission ErrorCode = "PERMISSION"  // Privilege problem
	ErrCodePlatform   ErrorCode = "PLATFORM"    // Unsupported or undetectable platform
	ErrCodeBrew       ErrorCode = "BREW"        // Homebrew operation failed
	ErrCodeConfigEdit ErrorCode = "CONFIG_EDIT" // Apache config file edit failed
	ErrCodeHTTPD      ErrorCode = "HTTPD"       // Apache control operation failed
	ErrCodeCert       ErrorCode = "CERT"        // Certificate generation or trust error
	ErrCodeSmoke      ErrorCode = "SMOKE"       // Smoke test request failed
	ErrCodeInternal   ErrorCode = "INTERNAL"    // Internal/unexpected error
)

// SetupError represents a structured error with context about the operation.
type SetupError struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message
	Path    string    // File or resource path (if applicable)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	if e.Path != "" && e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *SetupError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *SetupError) Is(target error) bool {
	t, ok := target.(*SetupError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for common error scenarios.
// Use these with errors.Is() for error checking.
var (
	// ErrUnsupportedOS indicates the tool is running on something other than macOS.
	ErrUnsupportedOS = &SetupError{Code: ErrCodePlatform, Message: "this tool only supports macOS"}

	// ErrBrewNotFound indicates Homebrew is not installed.
	ErrBrewNotFound = &SetupError{Code: ErrCodeBrew, Message: "Homebrew not found"}

	// ErrRunningAsRoot indicates the tool was invoked as root, which Homebrew refuses.
	ErrRunningAsRoot = &SetupError{Code: ErrCodePermission, Message: "do not run as root; sudo is requested only where needed"}

	// ErrConfigNotFound indicates an Apache configuration file is missing.
	ErrConfigNotFound = &SetupError{Code: ErrCodeNotFound, Message: "configuration file not found"}

	// ErrNoBackup indicates a restore was requested but no backup copy exists.
	ErrNoBackup = &SetupError{Code: ErrCodeNotFound, Message: "backup file not found"}

	// ErrCertNotTrusted indicates the generated certificate is not trusted by the keychain.
	ErrCertNotTrusted = &SetupError{Code: ErrCodeCert, Message: "certificate is not trusted"}

	// ErrPHPModuleMissing indicates Apache did not load the PHP module after configuration.
	ErrPHPModuleMissing = &SetupError{Code: ErrCodeHTTPD, Message: "php_module not loaded by Apache"}

	// ErrConfigTestFailed indicates apachectl configtest rejected the configuration.
	ErrConfigTestFailed = &SetupError{Code: ErrCodeHTTPD, Message: "Apache configuration test failed"}
)

// NotFound creates an error for a file that doesn't exist.
func NotFound(path string) error {
	return &SetupError{
		Code:    ErrCodeNotFound,
		Message: "file not found",
		Path:    path,
	}
}

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &SetupError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &SetupError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// WrapPath creates an error with file path context and underlying error.
func WrapPath(code ErrorCode, path string, err error) error {
	return &SetupError{
		Code: code,
		Path: path,
		Err:  err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
