// Package factory assembles common multi-node patterns on top of the blocks
// constructors. It adds no validation of its own: whatever the underlying
// layers reject, the factory rejects with the same issue.
package factory

import (
	"github.com/fedlang/fedir/blocks"
	"github.com/fedlang/fedir/intrinsics"
	"github.com/fedlang/fedir/types"
)

// IntrinsicCall resolves the named intrinsic's signature against the argument
// types, builds the intrinsic node and, for two or more arguments, the
// positional struct packing them, and returns the resulting call.
func IntrinsicCall(name string, args ...blocks.Node) (*blocks.Call, error) {
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.Type()
	}
	fnType, err := intrinsics.Resolve(name, argTypes...)
	if err != nil {
		return nil, err
	}
	intr, err := blocks.NewIntrinsic(name, fnType)
	if err != nil {
		return nil, err
	}
	var arg blocks.Node
	switch len(args) {
	case 0:
	case 1:
		arg = args[0]
	default:
		els := make([]blocks.Element, len(args))
		for i, a := range args {
			els[i] = blocks.Element{Value: a}
		}
		packed, err := blocks.NewStruct(els)
		if err != nil {
			return nil, err
		}
		arg = packed
	}
	return blocks.NewCall(intr, arg)
}

// Identity builds the lambda (arg: t -> arg).
func Identity(t types.Type) (*blocks.Lambda, error) {
	ref, err := blocks.NewReference("arg", t)
	if err != nil {
		return nil, err
	}
	return blocks.NewLambda("arg", t, ref)
}

// CalledLambda builds an immediately applied lambda, binding param to arg
// within body.
func CalledLambda(param string, paramType types.Type, body, arg blocks.Node) (*blocks.Call, error) {
	lam, err := blocks.NewLambda(param, paramType, body)
	if err != nil {
		return nil, err
	}
	return blocks.NewCall(lam, arg)
}
