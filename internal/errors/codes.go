// Package errors defines the structured error type and error codes used by
// the response decision pipeline. Every per-turn error is absorbed by the
// pipeline and downgrades the response strategy; these codes exist so that
// each absorbed error is logged with a stable, greppable identity.
package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for pipeline operations.
type ErrorCode string

const (
	// ErrCodeAnalysisDegraded indicates message analysis fell back to
	// neutral/casual defaults.
	ErrCodeAnalysisDegraded ErrorCode = "ANALYSIS_DEGRADED"
	// ErrCodeContextReadFailed indicates a single context store read failed
	// and the corresponding field was degraded.
	ErrCodeContextReadFailed ErrorCode = "CONTEXT_READ_FAILED"
	// ErrCodeBudgetExceeded indicates the per-turn store read budget was
	// spent and further reads were truncated.
	ErrCodeBudgetExceeded ErrorCode = "BUDGET_EXCEEDED"
	// ErrCodeNoQualifyingTemplate indicates no template qualified for the
	// detected emotion and available context.
	ErrCodeNoQualifyingTemplate ErrorCode = "NO_QUALIFYING_TEMPLATE"
	// ErrCodeServiceUnavailable indicates an external collaborator (LLM or
	// store) is entirely unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeCatalogInvalid indicates the template catalog could not be
	// loaded with at least one valid entry. Fatal at startup only.
	ErrCodeCatalogInvalid ErrorCode = "CATALOG_INVALID"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// PipelineError represents a structured error for pipeline operations.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *PipelineError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// AnalysisDegraded creates an analysis degraded error.
func AnalysisDegraded(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeAnalysisDegraded, Message: msg}
}

// ContextReadFailed creates a context read failed error.
func ContextReadFailed(field string, cause error) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeContextReadFailed,
		Message: fmt.Sprintf("context read failed for %s", field),
		Cause:   cause,
	}
}

// BudgetExceeded creates a budget exceeded error.
func BudgetExceeded(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeBudgetExceeded, Message: msg}
}

// NoQualifyingTemplate creates a no qualifying template error.
func NoQualifyingTemplate(emotion string) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeNoQualifyingTemplate,
		Message: fmt.Sprintf("no qualifying template for emotion: %s", emotion),
	}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string, cause error) *PipelineError {
	return &PipelineError{Code: ErrCodeServiceUnavailable, Message: msg, Cause: cause}
}

// CatalogInvalid creates a catalog invalid error.
func CatalogInvalid(msg string, cause error) *PipelineError {
	return &PipelineError{Code: ErrCodeCatalogInvalid, Message: msg, Cause: cause}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *PipelineError {
	return &PipelineError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *PipelineError {
	return &PipelineError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if perr, ok := err.(*PipelineError); ok {
		return perr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a PipelineError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if perr, ok := err.(*PipelineError); ok {
		return perr.Code
	}
	return defaultCode
}
