package fedir

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Type construction.
	CodeTypeConstruction = "type_construction"
	// Registries (placements, intrinsics).
	CodeDuplicateRegistration = "duplicate_registration"
	CodeUnknownPlacement      = "unknown_placement"
	CodeUnknownIntrinsic      = "unknown_intrinsic"
	CodeSignatureMismatch     = "signature_mismatch"
	// Building-block construction, subdivided by the violated typing rule.
	CodeArgumentTypeMismatch = "argument_type_mismatch"
	CodeIndexOutOfRange      = "index_out_of_range"
	CodeNameNotFound         = "name_not_found"
	CodeDuplicateBinding     = "duplicate_binding"
	CodeMalformedNode        = "malformed_node"
	// Exchange payloads.
	CodeEncode = "encode_error"
	CodeDecode = "decode_error"
)

// Issue is the single error shape surfaced by every layer of the module.
// A failed constructor returns no node at all; the Issue is the whole story.
type Issue struct {
	Code     string // One of the codes listed above.
	Node     string // Offending node kind or component ("call", "selection", "codec", ...).
	Name     string // Conflicting or missing name, when the code concerns one.
	Expected string // Canonical type string the rule required.
	Actual   string // Canonical type string that was supplied.
	Message  string
	Cause    error // Optional: underlying error.
}

// Error renders the issue compactly, e.g.
//
//	argument_type_mismatch at call: expected int32, got float64
func (is *Issue) Error() string {
	b := &strings.Builder{}
	b.WriteString(is.Code)
	if is.Node != "" {
		fmt.Fprintf(b, " at %s", is.Node)
	}
	if is.Name != "" {
		fmt.Fprintf(b, " (%q)", is.Name)
	}
	if is.Message != "" {
		b.WriteString(": ")
		b.WriteString(is.Message)
	}
	if is.Expected != "" || is.Actual != "" {
		fmt.Fprintf(b, ": expected %s, got %s", orNone(is.Expected), orNone(is.Actual))
	}
	if is.Cause != nil {
		fmt.Fprintf(b, ": %v", is.Cause)
	}
	return b.String()
}

func (is *Issue) Unwrap() error { return is.Cause }

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

// AsIssue extracts an *Issue from an error using errors.As internally.
func AsIssue(err error) (*Issue, bool) {
	if err == nil {
		return nil, false
	}
	var is *Issue
	if errors.As(err, &is) {
		return is, true
	}
	return nil, false
}

// CodeOf returns the issue code carried by err, or "" when err is not an Issue.
func CodeOf(err error) string {
	if is, ok := AsIssue(err); ok {
		return is.Code
	}
	return ""
}

// IsCode reports whether err is an Issue with the given code.
func IsCode(err error, code string) bool { return CodeOf(err) == code }
