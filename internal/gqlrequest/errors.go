package gqlrequest

import "fmt"

// Verdict codes used as metric labels.
const (
	CodeQueryTooDeep     = "query_too_deep"
	CodeQueryTooComplex  = "query_too_complex"
	CodeQueryTooLarge    = "query_too_large"
	CodeMalformedQuery   = "malformed_query"
	CodeInvalidVariables = "invalid_variables"
)

// QueryTooDeepError reports a selection tree deeper than the configured
// maximum. FragmentLimit is set when fragment expansion hit the recursion
// limit (or a spread cycle) before the depth could be measured.
type QueryTooDeepError struct {
	MaxDepth    int
	ActualDepth int

	FragmentLimit  bool
	RecursionLimit int
	Fragment       string
}

func (e *QueryTooDeepError) Error() string {
	if e.FragmentLimit {
		return fmt.Sprintf("query exceeds fragment recursion limit of %d at fragment %q", e.RecursionLimit, e.Fragment)
	}
	return fmt.Sprintf("query exceeds maximum depth of %d (depth: %d)", e.MaxDepth, e.ActualDepth)
}

// Code returns the verdict code.
func (e *QueryTooDeepError) Code() string { return CodeQueryTooDeep }

// QueryTooComplexError reports a complexity score above the configured
// maximum.
type QueryTooComplexError struct {
	MaxComplexity    int
	ActualComplexity int
}

func (e *QueryTooComplexError) Error() string {
	return fmt.Sprintf("query exceeds maximum complexity of %d (complexity: %d)", e.MaxComplexity, e.ActualComplexity)
}

// Code returns the verdict code.
func (e *QueryTooComplexError) Code() string { return CodeQueryTooComplex }

// QueryTooLargeError reports a query document above the size limit.
type QueryTooLargeError struct {
	MaxBytes    int
	ActualBytes int
}

func (e *QueryTooLargeError) Error() string {
	return fmt.Sprintf("query exceeds maximum size of %d bytes (size: %d bytes)", e.MaxBytes, e.ActualBytes)
}

// Code returns the verdict code.
func (e *QueryTooLargeError) Code() string { return CodeQueryTooLarge }

// MalformedQueryError reports a query that could not be parsed or has no
// executable operation.
type MalformedQueryError struct {
	Reason string
}

func (e *MalformedQueryError) Error() string {
	return "malformed query: " + e.Reason
}

// Code returns the verdict code.
func (e *MalformedQueryError) Code() string { return CodeMalformedQuery }

// InvalidVariablesError reports a variables payload that is not a JSON
// object.
type InvalidVariablesError struct {
	Reason string
}

func (e *InvalidVariablesError) Error() string {
	return "invalid variables: " + e.Reason
}

// Code returns the verdict code.
func (e *InvalidVariablesError) Code() string { return CodeInvalidVariables }

// Coded is implemented by every verdict error.
type Coded interface {
	error
	Code() string
}
