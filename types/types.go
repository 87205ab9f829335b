// Package types is the structural type system of the IR: scalar, struct,
// function, sequence and federated types, plus the placement type and the
// abstract type variables used by intrinsic signature templates.
//
// Types are immutable once constructed and safe to share by reference across
// goroutines. Two types are equal iff structurally identical; see Equal and
// IsAssignableFrom in analysis.go. Every type renders to a deterministic
// canonical string (String) that Parse accepts back.
package types

import (
	"strconv"
	"strings"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/placements"
)

// Kind discriminates the closed set of type kinds.
type Kind int

const (
	KindScalar Kind = iota
	KindStruct
	KindFunction
	KindSequence
	KindFederated
	KindPlacement
	KindAbstract
)

// Type is implemented by exactly the kinds enumerated above. Consumers are
// expected to switch exhaustively on Kind().
type Type interface {
	Kind() Kind
	// String renders the canonical form used in error messages and as a
	// cache key, e.g. "<a=int32,float64>" or "{int32}@clients".
	String() string

	isType()
}

// DType enumerates the scalar element types.
type DType string

const (
	Bool    DType = "bool"
	Int32   DType = "int32"
	Int64   DType = "int64"
	Float32 DType = "float32"
	Float64 DType = "float64"
	String  DType = "string"
	Bytes   DType = "bytes"
)

var dtypes = map[DType]bool{
	Bool: true, Int32: true, Int64: true,
	Float32: true, Float64: true, String: true, Bytes: true,
}

// ValidDType reports whether dt names a known scalar dtype.
func ValidDType(dt DType) bool { return dtypes[dt] }

// ---- Scalar ----

// ScalarType carries a single dtype.
type ScalarType struct{ dtype DType }

// Scalar returns the scalar type for dt. Passing an unknown dtype is API
// misuse and panics; dtypes arriving over the wire go through Parse, which
// rejects them with an error instead.
func Scalar(dt DType) *ScalarType {
	if !ValidDType(dt) {
		panic("types: unknown dtype " + string(dt))
	}
	return &ScalarType{dtype: dt}
}

func (t *ScalarType) Kind() Kind     { return KindScalar }
func (t *ScalarType) DType() DType   { return t.dtype }
func (t *ScalarType) String() string { return string(t.dtype) }
func (t *ScalarType) isType()        {}

// ---- Struct ----

// Element is one entry of a struct type: an optional name plus a type.
type Element struct {
	Name string // "" for positional elements
	Type Type
}

// StructType is an ordered list of named-or-positional elements.
type StructType struct{ elements []Element }

// NewStruct builds a struct type. Duplicate non-empty names, names that are
// not identifiers and nil element types are rejected with a type_construction
// issue. The identifier restriction keeps the canonical string form
// unambiguous and parseable.
func NewStruct(elements []Element) (*StructType, error) {
	seen := map[string]bool{}
	for i, el := range elements {
		if el.Type == nil {
			return nil, &fedir.Issue{
				Code:    fedir.CodeTypeConstruction,
				Node:    "struct",
				Message: "nil element type at position " + strconv.Itoa(i),
			}
		}
		if el.Name == "" {
			continue
		}
		if !isIdent(el.Name) {
			return nil, &fedir.Issue{
				Code:    fedir.CodeTypeConstruction,
				Node:    "struct",
				Name:    el.Name,
				Message: "element name must be an identifier",
			}
		}
		if seen[el.Name] {
			return nil, &fedir.Issue{
				Code:    fedir.CodeTypeConstruction,
				Node:    "struct",
				Name:    el.Name,
				Message: "duplicate element name",
			}
		}
		seen[el.Name] = true
	}
	cp := make([]Element, len(elements))
	copy(cp, elements)
	return &StructType{elements: cp}, nil
}

// MustStruct is NewStruct for statically known element lists.
func MustStruct(elements ...Element) *StructType {
	t, err := NewStruct(elements)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *StructType) Kind() Kind { return KindStruct }
func (t *StructType) Len() int   { return len(t.elements) }

// Element returns the i-th element. Callers must treat the result as read-only.
func (t *StructType) Element(i int) Element { return t.elements[i] }

// Elements returns a copy of the element list.
func (t *StructType) Elements() []Element {
	cp := make([]Element, len(t.elements))
	copy(cp, t.elements)
	return cp
}

// IndexOf returns the position of the named element, or -1.
func (t *StructType) IndexOf(name string) int {
	for i, el := range t.elements {
		if el.Name != "" && el.Name == name {
			return i
		}
	}
	return -1
}

// FullyNamed reports whether every element carries a name.
func (t *StructType) FullyNamed() bool {
	for _, el := range t.elements {
		if el.Name == "" {
			return false
		}
	}
	return len(t.elements) > 0
}

func (t *StructType) String() string {
	b := &strings.Builder{}
	b.WriteByte('<')
	for i, el := range t.elements {
		if i > 0 {
			b.WriteByte(',')
		}
		if el.Name != "" {
			b.WriteString(el.Name)
			b.WriteByte('=')
		}
		b.WriteString(el.Type.String())
	}
	b.WriteByte('>')
	return b.String()
}
func (t *StructType) isType() {}

// ---- Function ----

// FunctionType maps an optional parameter type to a result type.
type FunctionType struct {
	parameter Type // nil for parameterless functions
	result    Type
}

// Function builds a function type. parameter may be nil; a nil result is API
// misuse and panics.
func Function(parameter, result Type) *FunctionType {
	if result == nil {
		panic("types: function result type must be non-nil")
	}
	return &FunctionType{parameter: parameter, result: result}
}

func (t *FunctionType) Kind() Kind      { return KindFunction }
func (t *FunctionType) Parameter() Type { return t.parameter } // nil when absent
func (t *FunctionType) Result() Type    { return t.result }
func (t *FunctionType) String() string {
	if t.parameter == nil {
		return "( -> " + t.result.String() + ")"
	}
	return "(" + t.parameter.String() + " -> " + t.result.String() + ")"
}
func (t *FunctionType) isType() {}

// ---- Sequence ----

// SequenceType is an ordered stream of elements of one type.
type SequenceType struct{ element Type }

// Sequence builds a sequence type; a nil element is API misuse and panics.
func Sequence(element Type) *SequenceType {
	if element == nil {
		panic("types: sequence element type must be non-nil")
	}
	return &SequenceType{element: element}
}

func (t *SequenceType) Kind() Kind     { return KindSequence }
func (t *SequenceType) Element() Type  { return t.element }
func (t *SequenceType) String() string { return t.element.String() + "*" }
func (t *SequenceType) isType()        {}

// ---- Federated ----

// FederatedType is a member type located at a placement. AllEqual records
// whether every location holds one identical value (the spec's
// cardinality-is-one flag).
type FederatedType struct {
	member    Type
	placement placements.Placement
	allEqual  bool
}

// NewFederated builds a federated type. The placement must be a value issued
// by the placements registry, and the member must not itself contain
// federated, function or placement types.
func NewFederated(member Type, p placements.Placement, allEqual bool) (*FederatedType, error) {
	if member == nil {
		return nil, &fedir.Issue{
			Code:    fedir.CodeTypeConstruction,
			Node:    "federated",
			Message: "nil member type",
		}
	}
	if p.IsZero() {
		return nil, &fedir.Issue{
			Code:    fedir.CodeTypeConstruction,
			Node:    "federated",
			Message: "placement was not issued by the placements registry",
		}
	}
	if bad := findNonMember(member); bad != nil {
		return nil, &fedir.Issue{
			Code:    fedir.CodeTypeConstruction,
			Node:    "federated",
			Actual:  bad.String(),
			Message: "member type may not contain federated, function or placement types",
		}
	}
	return &FederatedType{member: member, placement: p, allEqual: allEqual}, nil
}

// MustFederated is NewFederated for statically known inputs.
func MustFederated(member Type, p placements.Placement, allEqual bool) *FederatedType {
	t, err := NewFederated(member, p, allEqual)
	if err != nil {
		panic(err)
	}
	return t
}

// findNonMember returns the first subtype of t that cannot appear inside a
// federated member, or nil.
func findNonMember(t Type) Type {
	switch tt := t.(type) {
	case *ScalarType, *AbstractType:
		return nil
	case *StructType:
		for i := 0; i < tt.Len(); i++ {
			if bad := findNonMember(tt.Element(i).Type); bad != nil {
				return bad
			}
		}
		return nil
	case *SequenceType:
		return findNonMember(tt.Element())
	default:
		return t
	}
}

func (t *FederatedType) Kind() Kind                      { return KindFederated }
func (t *FederatedType) Member() Type                    { return t.member }
func (t *FederatedType) Placement() placements.Placement { return t.placement }
func (t *FederatedType) AllEqual() bool                  { return t.allEqual }
func (t *FederatedType) String() string {
	if t.allEqual {
		return t.member.String() + "@" + t.placement.Name()
	}
	return "{" + t.member.String() + "}@" + t.placement.Name()
}
func (t *FederatedType) isType() {}

// ---- Placement ----

// PlacementType is the type of placement literal nodes. All placement values
// share this one type.
type PlacementType struct{}

// Placement returns the placement type.
func Placement() *PlacementType { return placementSingleton }

var placementSingleton = &PlacementType{}

func (t *PlacementType) Kind() Kind     { return KindPlacement }
func (t *PlacementType) String() string { return "placement" }
func (t *PlacementType) isType()        {}

// ---- Abstract ----

// AbstractType is a type variable. Abstract types appear only inside intrinsic
// signature templates; they are never the type of a constructed value.
type AbstractType struct{ label string }

// Abstract returns the type variable named label; an empty label is API
// misuse and panics.
func Abstract(label string) *AbstractType {
	if label == "" {
		panic("types: abstract type label must be non-empty")
	}
	return &AbstractType{label: label}
}

func (t *AbstractType) Kind() Kind     { return KindAbstract }
func (t *AbstractType) Label() string  { return t.label }
func (t *AbstractType) String() string { return "'" + t.label }
func (t *AbstractType) isType()        {}

// ContainsAbstract reports whether t contains any abstract type variable.
func ContainsAbstract(t Type) bool {
	switch tt := t.(type) {
	case *AbstractType:
		return true
	case *StructType:
		for i := 0; i < tt.Len(); i++ {
			if ContainsAbstract(tt.Element(i).Type) {
				return true
			}
		}
		return false
	case *FunctionType:
		if tt.Parameter() != nil && ContainsAbstract(tt.Parameter()) {
			return true
		}
		return ContainsAbstract(tt.Result())
	case *SequenceType:
		return ContainsAbstract(tt.Element())
	case *FederatedType:
		return ContainsAbstract(tt.Member())
	default:
		return false
	}
}
