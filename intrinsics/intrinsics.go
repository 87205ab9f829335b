// Package intrinsics is the append-only catalog of built-in federated
// operators. Each entry maps an intrinsic name to a function-type template
// that may contain abstract type variables ('T, 'U); Resolve instantiates a
// template against concrete argument types by unification.
package intrinsics

import (
	"sync"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/types"
)

// Names of the built-in intrinsics registered at package init.
const (
	FederatedBroadcast      = "federated_broadcast"
	FederatedMap            = "federated_map"
	FederatedApply          = "federated_apply"
	FederatedSum            = "federated_sum"
	FederatedCollect        = "federated_collect"
	FederatedValueAtServer  = "federated_value_at_server"
	FederatedValueAtClients = "federated_value_at_clients"
	FederatedZipAtClients   = "federated_zip_at_clients"
)

// Signature is one catalog entry.
type Signature struct {
	Name     string
	Template *types.FunctionType
}

var (
	mu    sync.RWMutex
	table = map[string]Signature{}
)

func init() {
	for name, sig := range map[string]string{
		FederatedBroadcast:      "('T@server -> 'T@clients)",
		FederatedMap:            "(<('T -> 'U),{'T}@clients> -> {'U}@clients)",
		FederatedApply:          "(<('T -> 'U),'T@server> -> 'U@server)",
		FederatedSum:            "({'T}@clients -> 'T@server)",
		FederatedCollect:        "({'T}@clients -> 'T*@server)",
		FederatedValueAtServer:  "('T -> 'T@server)",
		FederatedValueAtClients: "('T -> 'T@clients)",
		FederatedZipAtClients:   "(<{'T}@clients,{'U}@clients> -> {<'T,'U>}@clients)",
	} {
		if err := Register(name, types.MustParse(sig).(*types.FunctionType)); err != nil {
			panic(err)
		}
	}
}

// Register adds an intrinsic signature to the catalog. The catalog is
// append-only; registering a name twice fails and leaves the first entry
// intact. Registration must finish before concurrent resolution begins.
func Register(name string, template *types.FunctionType) error {
	if name == "" || template == nil {
		return &fedir.Issue{
			Code:    fedir.CodeSignatureMismatch,
			Node:    "intrinsic",
			Message: "intrinsic name and template must be non-empty",
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := table[name]; ok {
		return &fedir.Issue{
			Code:    fedir.CodeDuplicateRegistration,
			Node:    "intrinsic",
			Name:    name,
			Message: "intrinsic already registered",
		}
	}
	table[name] = Signature{Name: name, Template: template}
	return nil
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Signature, error) {
	mu.RLock()
	defer mu.RUnlock()
	sig, ok := table[name]
	if !ok {
		return Signature{}, &fedir.Issue{
			Code:    fedir.CodeUnknownIntrinsic,
			Node:    "intrinsic",
			Name:    name,
			Message: "intrinsic not registered",
		}
	}
	return sig, nil
}

// Names returns the registered intrinsic names in unspecified order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(table))
	for n := range table {
		out = append(out, n)
	}
	return out
}

// Resolve instantiates the named intrinsic's template against concrete
// argument types and returns the resulting concrete function type. Several
// argument types are packed into a positional struct, matching how calls to
// multi-argument intrinsics are assembled. Resolution fails with
// signature_mismatch when unification conflicts, when an argument is expected
// but missing (or vice versa), or when the result still contains an unbound
// variable.
func Resolve(name string, argTypes ...types.Type) (*types.FunctionType, error) {
	sig, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	var actual types.Type
	switch len(argTypes) {
	case 0:
		actual = nil
	case 1:
		actual = argTypes[0]
	default:
		els := make([]types.Element, len(argTypes))
		for i, at := range argTypes {
			els[i] = types.Element{Type: at}
		}
		st, err := types.NewStruct(els)
		if err != nil {
			return nil, err
		}
		actual = st
	}

	tmplParam := sig.Template.Parameter()
	if (tmplParam == nil) != (actual == nil) {
		return nil, mismatch(name, sig.Template, actual, "argument count does not match the template")
	}

	bindings := map[string]types.Type{}
	if tmplParam != nil {
		if err := unify(tmplParam, actual, bindings); err != nil {
			return nil, mismatch(name, sig.Template, actual, err.Error())
		}
	}

	result, ok := substitute(sig.Template.Result(), bindings)
	if !ok {
		return nil, mismatch(name, sig.Template, actual, "template result is under-constrained by the arguments")
	}
	var param types.Type
	if tmplParam != nil {
		param, ok = substitute(tmplParam, bindings)
		if !ok {
			return nil, mismatch(name, sig.Template, actual, "template parameter is under-constrained by the arguments")
		}
	}
	return types.Function(param, result), nil
}

func mismatch(name string, template *types.FunctionType, actual types.Type, msg string) error {
	actualStr := "<none>"
	if actual != nil {
		actualStr = actual.String()
	}
	return &fedir.Issue{
		Code:     fedir.CodeSignatureMismatch,
		Node:     "intrinsic",
		Name:     name,
		Expected: template.String(),
		Actual:   actualStr,
		Message:  msg,
	}
}

// unify matches a template type against a concrete type, binding abstract
// variables. Matching is structural and strict except that a not-all-equal
// federated template also accepts an all-equal argument.
func unify(tmpl, actual types.Type, bindings map[string]types.Type) error {
	if at, ok := tmpl.(*types.AbstractType); ok {
		if bound, seen := bindings[at.Label()]; seen {
			if !types.Equal(bound, actual) {
				return &fedir.Issue{
					Code:     fedir.CodeSignatureMismatch,
					Node:     "intrinsic",
					Name:     at.Label(),
					Expected: bound.String(),
					Actual:   actual.String(),
					Message:  "conflicting bindings for type variable",
				}
			}
			return nil
		}
		bindings[at.Label()] = actual
		return nil
	}
	if tmpl.Kind() != actual.Kind() {
		return structureMismatch(tmpl, actual)
	}
	switch tt := tmpl.(type) {
	case *types.ScalarType:
		if tt.DType() != actual.(*types.ScalarType).DType() {
			return structureMismatch(tmpl, actual)
		}
	case *types.StructType:
		st := actual.(*types.StructType)
		if tt.Len() != st.Len() {
			return structureMismatch(tmpl, actual)
		}
		for i := 0; i < tt.Len(); i++ {
			te, se := tt.Element(i), st.Element(i)
			if te.Name != se.Name {
				return structureMismatch(tmpl, actual)
			}
			if err := unify(te.Type, se.Type, bindings); err != nil {
				return err
			}
		}
	case *types.FunctionType:
		ft := actual.(*types.FunctionType)
		if (tt.Parameter() == nil) != (ft.Parameter() == nil) {
			return structureMismatch(tmpl, actual)
		}
		if tt.Parameter() != nil {
			if err := unify(tt.Parameter(), ft.Parameter(), bindings); err != nil {
				return err
			}
		}
		return unify(tt.Result(), ft.Result(), bindings)
	case *types.SequenceType:
		return unify(tt.Element(), actual.(*types.SequenceType).Element(), bindings)
	case *types.FederatedType:
		ft := actual.(*types.FederatedType)
		if tt.Placement() != ft.Placement() {
			return structureMismatch(tmpl, actual)
		}
		if tt.AllEqual() && !ft.AllEqual() {
			return structureMismatch(tmpl, actual)
		}
		return unify(tt.Member(), ft.Member(), bindings)
	case *types.PlacementType:
		// nothing to bind
	}
	return nil
}

// IsInstance reports whether concrete is an instantiation of template: the
// two unify and the bindings leave no variable of the template unbound in
// concrete's position.
func IsInstance(template, concrete types.Type) bool {
	if template == nil || concrete == nil {
		return false
	}
	if types.ContainsAbstract(concrete) {
		return false
	}
	bindings := map[string]types.Type{}
	return unify(template, concrete, bindings) == nil
}

func structureMismatch(tmpl, actual types.Type) error {
	return &fedir.Issue{
		Code:     fedir.CodeSignatureMismatch,
		Node:     "intrinsic",
		Expected: tmpl.String(),
		Actual:   actual.String(),
		Message:  "argument does not match the template",
	}
}

// substitute replaces abstract variables with their bindings; ok is false
// when an unbound variable remains.
func substitute(t types.Type, bindings map[string]types.Type) (types.Type, bool) {
	switch tt := t.(type) {
	case *types.AbstractType:
		bound, ok := bindings[tt.Label()]
		return bound, ok
	case *types.StructType:
		els := tt.Elements()
		changed := false
		for i, el := range els {
			sub, ok := substitute(el.Type, bindings)
			if !ok {
				return nil, false
			}
			if sub != el.Type {
				changed = true
			}
			els[i].Type = sub
		}
		if !changed {
			return tt, true
		}
		st, err := types.NewStruct(els)
		if err != nil {
			return nil, false
		}
		return st, true
	case *types.FunctionType:
		var param types.Type
		if tt.Parameter() != nil {
			p, ok := substitute(tt.Parameter(), bindings)
			if !ok {
				return nil, false
			}
			param = p
		}
		result, ok := substitute(tt.Result(), bindings)
		if !ok {
			return nil, false
		}
		if param == tt.Parameter() && result == tt.Result() {
			return tt, true
		}
		return types.Function(param, result), true
	case *types.SequenceType:
		el, ok := substitute(tt.Element(), bindings)
		if !ok {
			return nil, false
		}
		if el == tt.Element() {
			return tt, true
		}
		return types.Sequence(el), true
	case *types.FederatedType:
		member, ok := substitute(tt.Member(), bindings)
		if !ok {
			return nil, false
		}
		if member == tt.Member() {
			return tt, true
		}
		ft, err := types.NewFederated(member, tt.Placement(), tt.AllEqual())
		if err != nil {
			return nil, false
		}
		return ft, true
	default:
		return t, true
	}
}
