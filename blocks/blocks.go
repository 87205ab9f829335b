// Package blocks is the building-block IR: the expression-tree node kinds a
// federated computation is assembled from. Every node computes its type
// exactly once, at construction; constructors fail rather than produce a node
// whose type is inconsistent with its children. Nodes are immutable after
// construction and safe to share across goroutines; transformations produce
// new trees, sharing unchanged subtrees.
package blocks

import (
	"strconv"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/intrinsics"
	"github.com/fedlang/fedir/placements"
	"github.com/fedlang/fedir/types"
)

// NodeKind discriminates the closed set of node kinds.
type NodeKind int

const (
	KindReference NodeKind = iota
	KindSelection
	KindStruct
	KindCall
	KindLambda
	KindBlock
	KindData
	KindIntrinsic
	KindPlacement
	KindCompiled
)

var kindNames = [...]string{
	"reference", "selection", "struct", "call", "lambda",
	"block", "data", "intrinsic", "placement", "compiled",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Node is implemented by exactly the kinds enumerated above. Consumers are
// expected to switch exhaustively on Kind().
type Node interface {
	Kind() NodeKind
	// Type returns the node's computed type. It is set once at construction
	// and never recomputed.
	Type() types.Type

	isNode()
}

// valueType rejects types that cannot be the type of a constructed value.
func valueType(kind NodeKind, t types.Type) error {
	if t == nil {
		return &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    kind.String(),
			Message: "nil type",
		}
	}
	if types.ContainsAbstract(t) {
		return &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    kind.String(),
			Actual:  t.String(),
			Message: "abstract type variables cannot type a value",
		}
	}
	return nil
}

// ---- Reference ----

// Reference names a variable bound by an enclosing lambda or block. The type
// comes from the binding context supplied at construction.
type Reference struct {
	name string
	typ  types.Type
}

// NewReference builds a reference to name with the type it is bound to.
func NewReference(name string, typ types.Type) (*Reference, error) {
	if name == "" {
		return nil, &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    "reference",
			Message: "reference name must be non-empty",
		}
	}
	if err := valueType(KindReference, typ); err != nil {
		return nil, err
	}
	return &Reference{name: name, typ: typ}, nil
}

func (n *Reference) Kind() NodeKind   { return KindReference }
func (n *Reference) Type() types.Type { return n.typ }
func (n *Reference) Name() string     { return n.name }
func (n *Reference) isNode()          {}

// ---- Selection ----

// Selection projects one element out of a struct-typed source, by index or by
// name.
type Selection struct {
	source Node
	index  int    // always resolved, even for named selections
	name   string // "" for positional selections
	typ    types.Type
}

func selectionSource(source Node) (*types.StructType, error) {
	st, ok := source.Type().(*types.StructType)
	if !ok {
		return nil, &fedir.Issue{
			Code:     fedir.CodeMalformedNode,
			Node:     "selection",
			Expected: "a struct type",
			Actual:   source.Type().String(),
			Message:  "selection source must be struct-typed",
		}
	}
	return st, nil
}

// NewSelectionIndex selects the index-th element of source.
func NewSelectionIndex(source Node, index int) (*Selection, error) {
	st, err := selectionSource(source)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= st.Len() {
		return nil, &fedir.Issue{
			Code:    fedir.CodeIndexOutOfRange,
			Node:    "selection",
			Actual:  st.String(),
			Message: "index " + itoa(index) + " outside struct of length " + itoa(st.Len()),
		}
	}
	return &Selection{source: source, index: index, typ: st.Element(index).Type}, nil
}

// NewSelectionName selects the named element of source.
func NewSelectionName(source Node, name string) (*Selection, error) {
	st, err := selectionSource(source)
	if err != nil {
		return nil, err
	}
	i := st.IndexOf(name)
	if i < 0 {
		return nil, &fedir.Issue{
			Code:    fedir.CodeNameNotFound,
			Node:    "selection",
			Name:    name,
			Actual:  st.String(),
			Message: "no element with this name",
		}
	}
	return &Selection{source: source, index: i, name: name, typ: st.Element(i).Type}, nil
}

func (n *Selection) Kind() NodeKind   { return KindSelection }
func (n *Selection) Type() types.Type { return n.typ }
func (n *Selection) Source() Node     { return n.source }

// Index returns the resolved element position.
func (n *Selection) Index() int { return n.index }

// Name returns the selected element name and whether the selection was by name.
func (n *Selection) Name() (string, bool) { return n.name, n.name != "" }

func (n *Selection) isNode() {}

// ---- Struct ----

// Element is one entry of a struct node: an optional name plus a child node.
type Element struct {
	Name  string // "" for positional entries
	Value Node
}

// Struct is an ordered list of named-or-positional child nodes; its type is
// the struct type of the children's types.
type Struct struct {
	elements []Element
	typ      *types.StructType
}

// NewStruct builds a struct node. Naming rules (duplicate non-empty names)
// are enforced by the type system.
func NewStruct(elements []Element) (*Struct, error) {
	typeEls := make([]types.Element, len(elements))
	for i, el := range elements {
		if el.Value == nil {
			return nil, &fedir.Issue{
				Code:    fedir.CodeMalformedNode,
				Node:    "struct",
				Message: "nil child node at position " + itoa(i),
			}
		}
		typeEls[i] = types.Element{Name: el.Name, Type: el.Value.Type()}
	}
	st, err := types.NewStruct(typeEls)
	if err != nil {
		return nil, err
	}
	cp := make([]Element, len(elements))
	copy(cp, elements)
	return &Struct{elements: cp, typ: st}, nil
}

func (n *Struct) Kind() NodeKind   { return KindStruct }
func (n *Struct) Type() types.Type { return n.typ }
func (n *Struct) Len() int         { return len(n.elements) }

// Element returns the i-th entry. Callers must treat the result as read-only.
func (n *Struct) Element(i int) Element { return n.elements[i] }

// Elements returns a copy of the entry list.
func (n *Struct) Elements() []Element {
	cp := make([]Element, len(n.elements))
	copy(cp, n.elements)
	return cp
}

func (n *Struct) isNode() {}

// ---- Call ----

// Call applies a function-typed node to an optional argument.
type Call struct {
	fn  Node
	arg Node // nil for parameterless functions
	typ types.Type
}

// NewCall builds a call. The function node must be function-typed, the
// argument must be present exactly when the parameter is, and the argument's
// type must be assignable to the parameter type.
func NewCall(fn, arg Node) (*Call, error) {
	ft, ok := fn.Type().(*types.FunctionType)
	if !ok {
		return nil, &fedir.Issue{
			Code:     fedir.CodeMalformedNode,
			Node:     "call",
			Expected: "a function type",
			Actual:   fn.Type().String(),
			Message:  "called node must be function-typed",
		}
	}
	switch {
	case ft.Parameter() == nil && arg != nil:
		return nil, &fedir.Issue{
			Code:    fedir.CodeArgumentTypeMismatch,
			Node:    "call",
			Actual:  arg.Type().String(),
			Message: "function takes no argument",
		}
	case ft.Parameter() != nil && arg == nil:
		return nil, &fedir.Issue{
			Code:     fedir.CodeArgumentTypeMismatch,
			Node:     "call",
			Expected: ft.Parameter().String(),
			Message:  "function requires an argument",
		}
	case ft.Parameter() != nil:
		if !types.IsAssignableFrom(ft.Parameter(), arg.Type()) {
			return nil, &fedir.Issue{
				Code:     fedir.CodeArgumentTypeMismatch,
				Node:     "call",
				Expected: ft.Parameter().String(),
				Actual:   arg.Type().String(),
				Message:  "argument type is not assignable to the parameter type",
			}
		}
	}
	return &Call{fn: fn, arg: arg, typ: ft.Result()}, nil
}

func (n *Call) Kind() NodeKind   { return KindCall }
func (n *Call) Type() types.Type { return n.typ }
func (n *Call) Fn() Node         { return n.fn }

// Arg returns the argument node, nil for parameterless calls.
func (n *Call) Arg() Node { return n.arg }

func (n *Call) isNode() {}

// ---- Lambda ----

// Lambda abstracts its body over one named parameter. The body may reference
// the parameter name.
type Lambda struct {
	paramName string
	paramType types.Type
	body      Node
	typ       *types.FunctionType
}

// NewLambda builds a lambda of type (paramType -> body type).
func NewLambda(paramName string, paramType types.Type, body Node) (*Lambda, error) {
	if paramName == "" {
		return nil, &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    "lambda",
			Message: "parameter name must be non-empty",
		}
	}
	if err := valueType(KindLambda, paramType); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    "lambda",
			Message: "nil body",
		}
	}
	return &Lambda{
		paramName: paramName,
		paramType: paramType,
		body:      body,
		typ:       types.Function(paramType, body.Type()),
	}, nil
}

func (n *Lambda) Kind() NodeKind        { return KindLambda }
func (n *Lambda) Type() types.Type      { return n.typ }
func (n *Lambda) ParamName() string     { return n.paramName }
func (n *Lambda) ParamType() types.Type { return n.paramType }
func (n *Lambda) Body() Node            { return n.body }
func (n *Lambda) isNode()               {}

// ---- Block ----

// Local is one binding of a block, in single-static-assignment order: its
// value may reference earlier locals of the same block but no later ones.
type Local struct {
	Name  string
	Value Node
}

// Block evaluates an ordered list of locals and a result expression in the
// environment extended by those locals.
type Block struct {
	locals []Local
	result Node
	typ    types.Type
}

// NewBlock builds a block. Duplicate names within one block's binding list
// are rejected; shadowing names bound by enclosing scopes is allowed.
func NewBlock(locals []Local, result Node) (*Block, error) {
	seen := map[string]bool{}
	for i, l := range locals {
		if l.Name == "" {
			return nil, &fedir.Issue{
				Code:    fedir.CodeMalformedNode,
				Node:    "block",
				Message: "empty binding name at position " + itoa(i),
			}
		}
		if l.Value == nil {
			return nil, &fedir.Issue{
				Code:    fedir.CodeMalformedNode,
				Node:    "block",
				Name:    l.Name,
				Message: "nil binding value",
			}
		}
		if seen[l.Name] {
			return nil, &fedir.Issue{
				Code:    fedir.CodeDuplicateBinding,
				Node:    "block",
				Name:    l.Name,
				Message: "binding name repeated within one block",
			}
		}
		seen[l.Name] = true
	}
	if result == nil {
		return nil, &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    "block",
			Message: "nil result",
		}
	}
	cp := make([]Local, len(locals))
	copy(cp, locals)
	return &Block{locals: cp, result: result, typ: result.Type()}, nil
}

func (n *Block) Kind() NodeKind   { return KindBlock }
func (n *Block) Type() types.Type { return n.typ }
func (n *Block) Len() int         { return len(n.locals) }

// Local returns the i-th binding. Callers must treat the result as read-only.
func (n *Block) Local(i int) Local { return n.locals[i] }

// Locals returns a copy of the binding list.
func (n *Block) Locals() []Local {
	cp := make([]Local, len(n.locals))
	copy(cp, n.locals)
	return cp
}

func (n *Block) Result() Node { return n.result }
func (n *Block) isNode()      {}

// ---- Data ----

// Data is a leaf embedding an opaque constant payload with an explicit type.
type Data struct {
	content []byte
	typ     types.Type
}

// NewData builds a data literal. The payload is copied; its interpretation is
// owned by the execution backend and never inspected here.
func NewData(content []byte, typ types.Type) (*Data, error) {
	if err := valueType(KindData, typ); err != nil {
		return nil, err
	}
	cp := make([]byte, len(content))
	copy(cp, content)
	return &Data{content: cp, typ: typ}, nil
}

func (n *Data) Kind() NodeKind   { return KindData }
func (n *Data) Type() types.Type { return n.typ }

// Content returns a copy of the payload.
func (n *Data) Content() []byte {
	cp := make([]byte, len(n.content))
	copy(cp, n.content)
	return cp
}

func (n *Data) isNode() {}

// ---- Intrinsic ----

// Intrinsic references a catalog operator at a concrete instantiation of its
// signature template.
type Intrinsic struct {
	name string
	typ  *types.FunctionType
}

// NewIntrinsic builds an intrinsic reference. The name must be registered and
// typ must be a concrete instance of the registered template.
func NewIntrinsic(name string, typ types.Type) (*Intrinsic, error) {
	sig, err := intrinsics.Lookup(name)
	if err != nil {
		return nil, err
	}
	ft, ok := typ.(*types.FunctionType)
	if !ok || typ == nil {
		actual := "<nil>"
		if typ != nil {
			actual = typ.String()
		}
		return nil, &fedir.Issue{
			Code:     fedir.CodeMalformedNode,
			Node:     "intrinsic",
			Name:     name,
			Expected: "a function type",
			Actual:   actual,
			Message:  "intrinsic nodes are function-typed",
		}
	}
	if err := valueType(KindIntrinsic, ft); err != nil {
		return nil, err
	}
	if !intrinsics.IsInstance(sig.Template, ft) {
		return nil, &fedir.Issue{
			Code:     fedir.CodeSignatureMismatch,
			Node:     "intrinsic",
			Name:     name,
			Expected: sig.Template.String(),
			Actual:   ft.String(),
			Message:  "type is not an instance of the registered template",
		}
	}
	return &Intrinsic{name: name, typ: ft}, nil
}

func (n *Intrinsic) Kind() NodeKind   { return KindIntrinsic }
func (n *Intrinsic) Type() types.Type { return n.typ }
func (n *Intrinsic) Name() string     { return n.name }
func (n *Intrinsic) isNode()          {}

// ---- Placement ----

// Placement is a literal naming a registered placement; all placement
// literals share the placement type.
type Placement struct {
	placement placements.Placement
}

// NewPlacement builds a placement literal from a registry-issued value.
func NewPlacement(p placements.Placement) (*Placement, error) {
	if p.IsZero() {
		return nil, &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    "placement",
			Message: "placement was not issued by the placements registry",
		}
	}
	return &Placement{placement: p}, nil
}

func (n *Placement) Kind() NodeKind                  { return KindPlacement }
func (n *Placement) Type() types.Type                { return types.Placement() }
func (n *Placement) Placement() placements.Placement { return n.placement }
func (n *Placement) isNode()                         {}

// ---- Compiled ----

// Compiled is an opaque handle to a pre-compiled, externally defined
// computation. Its declared type is trusted; the referenced computation is
// not re-validated structurally.
type Compiled struct {
	handle string
	typ    types.Type
}

// NewCompiled builds a compiled-computation reference.
func NewCompiled(handle string, typ types.Type) (*Compiled, error) {
	if handle == "" {
		return nil, &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    "compiled",
			Message: "handle must be non-empty",
		}
	}
	if err := valueType(KindCompiled, typ); err != nil {
		return nil, err
	}
	return &Compiled{handle: handle, typ: typ}, nil
}

func (n *Compiled) Kind() NodeKind   { return KindCompiled }
func (n *Compiled) Type() types.Type { return n.typ }
func (n *Compiled) Handle() string   { return n.handle }
func (n *Compiled) isNode()          {}

func itoa(i int) string { return strconv.Itoa(i) }
