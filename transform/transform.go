// Package transform holds pure rewrite passes over building-block trees.
// Passes never mutate their input: they return a new tree, sharing every
// unchanged subtree with the original, plus a flag reporting whether anything
// changed. All rebuilding goes through the blocks constructors, so a pass
// cannot produce an ill-typed tree.
package transform

import (
	"strconv"

	"github.com/fedlang/fedir/blocks"
	"github.com/fedlang/fedir/types"
)

// RewriteFn inspects one node and either returns it unchanged (false) or
// returns a replacement (true). The node's children have already been
// rewritten when the function runs.
type RewriteFn func(blocks.Node) (blocks.Node, bool, error)

// Rewrite applies fn to every node of the tree in post order, rebuilding only
// the spines above changed nodes.
func Rewrite(n blocks.Node, fn RewriteFn) (blocks.Node, bool, error) {
	rebuilt, changed, err := rewriteChildren(n, fn)
	if err != nil {
		return nil, false, err
	}
	replaced, hit, err := fn(rebuilt)
	if err != nil {
		return nil, false, err
	}
	return replaced, changed || hit, nil
}

func rewriteChildren(n blocks.Node, fn RewriteFn) (blocks.Node, bool, error) {
	switch nn := n.(type) {
	case *blocks.Reference, *blocks.Data, *blocks.Intrinsic, *blocks.Placement, *blocks.Compiled:
		return n, false, nil
	case *blocks.Selection:
		source, changed, err := Rewrite(nn.Source(), fn)
		if err != nil || !changed {
			return n, changed, err
		}
		if name, byName := nn.Name(); byName {
			sel, err := blocks.NewSelectionName(source, name)
			return sel, true, err
		}
		sel, err := blocks.NewSelectionIndex(source, nn.Index())
		return sel, true, err
	case *blocks.Struct:
		els := nn.Elements()
		changed := false
		for i, el := range els {
			value, hit, err := Rewrite(el.Value, fn)
			if err != nil {
				return nil, false, err
			}
			changed = changed || hit
			els[i].Value = value
		}
		if !changed {
			return n, false, nil
		}
		st, err := blocks.NewStruct(els)
		return st, true, err
	case *blocks.Call:
		fnNode, changed, err := Rewrite(nn.Fn(), fn)
		if err != nil {
			return nil, false, err
		}
		arg := nn.Arg()
		if arg != nil {
			rebuilt, hit, err := Rewrite(arg, fn)
			if err != nil {
				return nil, false, err
			}
			changed = changed || hit
			arg = rebuilt
		}
		if !changed {
			return n, false, nil
		}
		call, err := blocks.NewCall(fnNode, arg)
		return call, true, err
	case *blocks.Lambda:
		body, changed, err := Rewrite(nn.Body(), fn)
		if err != nil || !changed {
			return n, changed, err
		}
		lam, err := blocks.NewLambda(nn.ParamName(), nn.ParamType(), body)
		return lam, true, err
	case *blocks.Block:
		locals := nn.Locals()
		changed := false
		for i, l := range locals {
			value, hit, err := Rewrite(l.Value, fn)
			if err != nil {
				return nil, false, err
			}
			changed = changed || hit
			locals[i].Value = value
		}
		result, hit, err := Rewrite(nn.Result(), fn)
		if err != nil {
			return nil, false, err
		}
		changed = changed || hit
		if !changed {
			return n, false, nil
		}
		blk, err := blocks.NewBlock(locals, result)
		return blk, true, err
	default:
		return n, false, nil
	}
}

// ReplaceCalledLambdas turns every immediately applied lambda
// (x: T -> body)(arg) into the block [x=arg] in body.
func ReplaceCalledLambdas(n blocks.Node) (blocks.Node, bool, error) {
	return Rewrite(n, func(node blocks.Node) (blocks.Node, bool, error) {
		call, ok := node.(*blocks.Call)
		if !ok || call.Arg() == nil {
			return node, false, nil
		}
		lam, ok := call.Fn().(*blocks.Lambda)
		if !ok {
			return node, false, nil
		}
		blk, err := blocks.NewBlock(
			[]blocks.Local{{Name: lam.ParamName(), Value: call.Arg()}},
			lam.Body(),
		)
		if err != nil {
			return nil, false, err
		}
		return blk, true, nil
	})
}

// RemoveMappedIdentity drops federated_map and federated_apply calls whose
// mapping function is an identity lambda, keeping the mapped value. Only
// type-preserving occurrences are rewritten.
func RemoveMappedIdentity(n blocks.Node) (blocks.Node, bool, error) {
	return Rewrite(n, func(node blocks.Node) (blocks.Node, bool, error) {
		call, ok := node.(*blocks.Call)
		if !ok {
			return node, false, nil
		}
		intr, ok := call.Fn().(*blocks.Intrinsic)
		if !ok || (intr.Name() != "federated_map" && intr.Name() != "federated_apply") {
			return node, false, nil
		}
		pack, ok := call.Arg().(*blocks.Struct)
		if !ok || pack.Len() != 2 {
			return node, false, nil
		}
		if !isIdentity(pack.Element(0).Value) {
			return node, false, nil
		}
		mapped := pack.Element(1).Value
		if !types.Equal(mapped.Type(), call.Type()) {
			return node, false, nil
		}
		return mapped, true, nil
	})
}

func isIdentity(n blocks.Node) bool {
	lam, ok := n.(*blocks.Lambda)
	if !ok {
		return false
	}
	ref, ok := lam.Body().(*blocks.Reference)
	return ok && ref.Name() == lam.ParamName() && types.Equal(ref.Type(), lam.ParamType())
}

// InlineBlockLocals substitutes every block's locals into its result and
// drops the block. Callers must run UniquifyReferenceNames first; inlining
// under reused binding names risks capture and is not detected here.
func InlineBlockLocals(n blocks.Node) (blocks.Node, bool, error) {
	return Rewrite(n, func(node blocks.Node) (blocks.Node, bool, error) {
		blk, ok := node.(*blocks.Block)
		if !ok {
			return node, false, nil
		}
		locals := blk.Locals()
		result := blk.Result()
		// Later locals may reference earlier ones, so substitute backwards
		// into both the result and the remaining values.
		for i := len(locals) - 1; i >= 0; i-- {
			var err error
			result, err = substitute(result, locals[i].Name, locals[i].Value)
			if err != nil {
				return nil, false, err
			}
		}
		return result, true, nil
	})
}

// substitute replaces free references to name within n by replacement,
// stopping at binders that shadow the name.
func substitute(n blocks.Node, name string, replacement blocks.Node) (blocks.Node, error) {
	switch nn := n.(type) {
	case *blocks.Reference:
		if nn.Name() == name {
			return replacement, nil
		}
		return n, nil
	case *blocks.Lambda:
		if nn.ParamName() == name {
			return n, nil
		}
		body, err := substitute(nn.Body(), name, replacement)
		if err != nil || body == nn.Body() {
			return n, err
		}
		return blocks.NewLambda(nn.ParamName(), nn.ParamType(), body)
	case *blocks.Block:
		locals := nn.Locals()
		changed := false
		shadowed := false
		for i, l := range locals {
			if shadowed {
				break
			}
			value, err := substitute(l.Value, name, replacement)
			if err != nil {
				return nil, err
			}
			if value != l.Value {
				changed = true
				locals[i].Value = value
			}
			if l.Name == name {
				shadowed = true
			}
		}
		result := nn.Result()
		if !shadowed {
			rebuilt, err := substitute(result, name, replacement)
			if err != nil {
				return nil, err
			}
			if rebuilt != result {
				changed = true
				result = rebuilt
			}
		}
		if !changed {
			return n, nil
		}
		return blocks.NewBlock(locals, result)
	default:
		// Scope-free interior nodes reuse the generic rebuild with a
		// single-purpose rewrite of their direct children.
		return substituteChildren(n, name, replacement)
	}
}

func substituteChildren(n blocks.Node, name string, replacement blocks.Node) (blocks.Node, error) {
	switch nn := n.(type) {
	case *blocks.Selection:
		source, err := substitute(nn.Source(), name, replacement)
		if err != nil || source == nn.Source() {
			return n, err
		}
		if selName, byName := nn.Name(); byName {
			return blocks.NewSelectionName(source, selName)
		}
		return blocks.NewSelectionIndex(source, nn.Index())
	case *blocks.Struct:
		els := nn.Elements()
		changed := false
		for i, el := range els {
			value, err := substitute(el.Value, name, replacement)
			if err != nil {
				return nil, err
			}
			if value != el.Value {
				changed = true
				els[i].Value = value
			}
		}
		if !changed {
			return n, nil
		}
		return blocks.NewStruct(els)
	case *blocks.Call:
		fnNode, err := substitute(nn.Fn(), name, replacement)
		if err != nil {
			return nil, err
		}
		arg := nn.Arg()
		if arg != nil {
			arg, err = substitute(arg, name, replacement)
			if err != nil {
				return nil, err
			}
		}
		if fnNode == nn.Fn() && arg == nn.Arg() {
			return n, nil
		}
		return blocks.NewCall(fnNode, arg)
	default:
		return n, nil
	}
}

// UniquifyReferenceNames renames every lambda parameter and block local to a
// fresh _var{N} name, eliminating shadowing so that name-based passes such as
// InlineBlockLocals are safe to run.
func UniquifyReferenceNames(n blocks.Node) (blocks.Node, bool, error) {
	u := &uniquifier{env: map[string][]string{}}
	out, err := u.walk(n)
	if err != nil {
		return nil, false, err
	}
	return out, u.counter > 0, nil
}

type uniquifier struct {
	counter int
	env     map[string][]string // original name -> stack of fresh names
}

func (u *uniquifier) fresh() string {
	u.counter++
	return "_var" + strconv.Itoa(u.counter)
}

func (u *uniquifier) bind(name string) string {
	f := u.fresh()
	u.env[name] = append(u.env[name], f)
	return f
}

func (u *uniquifier) unbind(name string) {
	stack := u.env[name]
	u.env[name] = stack[:len(stack)-1]
}

func (u *uniquifier) rename(name string) string {
	stack := u.env[name]
	if len(stack) == 0 {
		return name // free reference, left alone
	}
	return stack[len(stack)-1]
}

func (u *uniquifier) walk(n blocks.Node) (blocks.Node, error) {
	switch nn := n.(type) {
	case *blocks.Reference:
		fresh := u.rename(nn.Name())
		if fresh == nn.Name() {
			return n, nil
		}
		return blocks.NewReference(fresh, nn.Type())
	case *blocks.Lambda:
		fresh := u.bind(nn.ParamName())
		defer u.unbind(nn.ParamName())
		body, err := u.walk(nn.Body())
		if err != nil {
			return nil, err
		}
		return blocks.NewLambda(fresh, nn.ParamType(), body)
	case *blocks.Block:
		locals := nn.Locals()
		bound := make([]string, 0, len(locals))
		for i, l := range locals {
			value, err := u.walk(l.Value)
			if err != nil {
				for _, name := range bound {
					u.unbind(name)
				}
				return nil, err
			}
			locals[i].Value = value
			locals[i].Name = u.bind(l.Name)
			bound = append(bound, l.Name)
		}
		result, err := u.walk(nn.Result())
		for _, name := range bound {
			u.unbind(name)
		}
		if err != nil {
			return nil, err
		}
		return blocks.NewBlock(locals, result)
	case *blocks.Selection:
		source, err := u.walk(nn.Source())
		if err != nil {
			return nil, err
		}
		if source == nn.Source() {
			return n, nil
		}
		if name, byName := nn.Name(); byName {
			return blocks.NewSelectionName(source, name)
		}
		return blocks.NewSelectionIndex(source, nn.Index())
	case *blocks.Struct:
		els := nn.Elements()
		changed := false
		for i, el := range els {
			value, err := u.walk(el.Value)
			if err != nil {
				return nil, err
			}
			if value != el.Value {
				changed = true
				els[i].Value = value
			}
		}
		if !changed {
			return n, nil
		}
		return blocks.NewStruct(els)
	case *blocks.Call:
		fnNode, err := u.walk(nn.Fn())
		if err != nil {
			return nil, err
		}
		arg := nn.Arg()
		if arg != nil {
			arg, err = u.walk(arg)
			if err != nil {
				return nil, err
			}
		}
		if fnNode == nn.Fn() && arg == nn.Arg() {
			return n, nil
		}
		return blocks.NewCall(fnNode, arg)
	default:
		return n, nil
	}
}
