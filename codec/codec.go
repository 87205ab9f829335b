// Package codec maps building-block trees to and from the exchange format: a
// versioned, self-describing msgpack envelope in which every node carries its
// kind and canonical type string. Decoding rebuilds trees strictly through
// the blocks constructors, so a corrupted or adversarial payload fails with a
// decode_error instead of producing an inconsistent tree.
//
// Schema evolution contract: envelopes are encoded as field-name maps and
// decoders ignore unknown fields, so fields may be added without breaking old
// readers.
package codec

import (
	"github.com/vmihailenco/msgpack/v5"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/blocks"
	"github.com/fedlang/fedir/placements"
	"github.com/fedlang/fedir/types"
)

// Version is the current exchange schema version.
const Version uint16 = 1

type payload struct {
	Version uint16    `msgpack:"version" json:"version"`
	Root    *envelope `msgpack:"root" json:"root"`
}

// envelope is the wire shape of one node. Exactly the fields for the node's
// kind are populated.
type envelope struct {
	Kind string `msgpack:"kind" json:"kind"`
	Type string `msgpack:"type" json:"type"`

	Name      string     `msgpack:"name,omitempty" json:"name,omitempty"`
	Source    *envelope  `msgpack:"source,omitempty" json:"source,omitempty"`
	Index     *int       `msgpack:"index,omitempty" json:"index,omitempty"`
	Elements  []element  `msgpack:"elements,omitempty" json:"elements,omitempty"`
	Fn        *envelope  `msgpack:"fn,omitempty" json:"fn,omitempty"`
	Arg       *envelope  `msgpack:"arg,omitempty" json:"arg,omitempty"`
	ParamName string     `msgpack:"param_name,omitempty" json:"param_name,omitempty"`
	ParamType string     `msgpack:"param_type,omitempty" json:"param_type,omitempty"`
	Body      *envelope  `msgpack:"body,omitempty" json:"body,omitempty"`
	Locals    []local    `msgpack:"locals,omitempty" json:"locals,omitempty"`
	Result    *envelope  `msgpack:"result,omitempty" json:"result,omitempty"`
	Content   []byte     `msgpack:"content,omitempty" json:"content,omitempty"`
	Placement string     `msgpack:"placement,omitempty" json:"placement,omitempty"`
	Handle    string     `msgpack:"handle,omitempty" json:"handle,omitempty"`
}

type element struct {
	Name  string    `msgpack:"name,omitempty" json:"name,omitempty"`
	Value *envelope `msgpack:"value" json:"value"`
}

type local struct {
	Name  string    `msgpack:"name" json:"name"`
	Value *envelope `msgpack:"value" json:"value"`
}

// Encode serializes a tree into exchange bytes.
func Encode(n blocks.Node) ([]byte, error) {
	if n == nil {
		return nil, &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    "codec",
			Message: "nil node",
		}
	}
	root := toEnvelope(n)
	out, err := msgpack.Marshal(payload{Version: Version, Root: root})
	if err != nil {
		return nil, &fedir.Issue{
			Code:    fedir.CodeEncode,
			Node:    "codec",
			Message: "msgpack encoding failed",
			Cause:   err,
		}
	}
	return out, nil
}

func toEnvelope(n blocks.Node) *envelope {
	env := &envelope{Kind: n.Kind().String(), Type: n.Type().String()}
	switch nn := n.(type) {
	case *blocks.Reference:
		env.Name = nn.Name()
	case *blocks.Selection:
		env.Source = toEnvelope(nn.Source())
		if name, byName := nn.Name(); byName {
			env.Name = name
		} else {
			i := nn.Index()
			env.Index = &i
		}
	case *blocks.Struct:
		env.Elements = make([]element, nn.Len())
		for i := 0; i < nn.Len(); i++ {
			el := nn.Element(i)
			env.Elements[i] = element{Name: el.Name, Value: toEnvelope(el.Value)}
		}
	case *blocks.Call:
		env.Fn = toEnvelope(nn.Fn())
		if nn.Arg() != nil {
			env.Arg = toEnvelope(nn.Arg())
		}
	case *blocks.Lambda:
		env.ParamName = nn.ParamName()
		env.ParamType = nn.ParamType().String()
		env.Body = toEnvelope(nn.Body())
	case *blocks.Block:
		env.Locals = make([]local, nn.Len())
		for i := 0; i < nn.Len(); i++ {
			l := nn.Local(i)
			env.Locals[i] = local{Name: l.Name, Value: toEnvelope(l.Value)}
		}
		env.Result = toEnvelope(nn.Result())
	case *blocks.Data:
		env.Content = nn.Content()
	case *blocks.Intrinsic:
		env.Name = nn.Name()
	case *blocks.Placement:
		env.Placement = nn.Placement().Name()
	case *blocks.Compiled:
		env.Handle = nn.Handle()
	}
	return env
}

// Decode reconstructs a tree from exchange bytes. Every node is rebuilt
// through the same constructors used for direct construction and its declared
// type is cross-checked against the constructor-computed one; decoding is not
// a trusted shortcut around validation.
func Decode(data []byte) (blocks.Node, error) {
	var p payload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, decodeErr("payload is not valid msgpack", err)
	}
	if p.Version == 0 {
		return nil, decodeErr("missing schema version", nil)
	}
	if p.Root == nil {
		return nil, decodeErr("missing root node", nil)
	}
	return fromEnvelope(p.Root)
}

func decodeErr(msg string, cause error) error {
	return &fedir.Issue{
		Code:    fedir.CodeDecode,
		Node:    "codec",
		Message: msg,
		Cause:   cause,
	}
}

func fromEnvelope(env *envelope) (blocks.Node, error) {
	declared, err := types.Parse(env.Type)
	if err != nil {
		return nil, decodeErr("node type does not parse", err)
	}

	var n blocks.Node
	switch env.Kind {
	case "reference":
		n, err = blocks.NewReference(env.Name, declared)
	case "selection":
		if env.Source == nil {
			return nil, decodeErr("selection without source", nil)
		}
		var source blocks.Node
		source, err = fromEnvelope(env.Source)
		if err != nil {
			return nil, err
		}
		if env.Name != "" {
			n, err = blocks.NewSelectionName(source, env.Name)
		} else if env.Index != nil {
			n, err = blocks.NewSelectionIndex(source, *env.Index)
		} else {
			return nil, decodeErr("selection carries neither name nor index", nil)
		}
	case "struct":
		els := make([]blocks.Element, len(env.Elements))
		for i, el := range env.Elements {
			if el.Value == nil {
				return nil, decodeErr("struct element without value", nil)
			}
			child, cerr := fromEnvelope(el.Value)
			if cerr != nil {
				return nil, cerr
			}
			els[i] = blocks.Element{Name: el.Name, Value: child}
		}
		n, err = blocks.NewStruct(els)
	case "call":
		if env.Fn == nil {
			return nil, decodeErr("call without function", nil)
		}
		var fn, arg blocks.Node
		fn, err = fromEnvelope(env.Fn)
		if err != nil {
			return nil, err
		}
		if env.Arg != nil {
			arg, err = fromEnvelope(env.Arg)
			if err != nil {
				return nil, err
			}
		}
		n, err = blocks.NewCall(fn, arg)
	case "lambda":
		if env.Body == nil {
			return nil, decodeErr("lambda without body", nil)
		}
		var paramType types.Type
		paramType, err = types.Parse(env.ParamType)
		if err != nil {
			return nil, decodeErr("lambda parameter type does not parse", err)
		}
		var body blocks.Node
		body, err = fromEnvelope(env.Body)
		if err != nil {
			return nil, err
		}
		n, err = blocks.NewLambda(env.ParamName, paramType, body)
	case "block":
		if env.Result == nil {
			return nil, decodeErr("block without result", nil)
		}
		locals := make([]blocks.Local, len(env.Locals))
		for i, l := range env.Locals {
			if l.Value == nil {
				return nil, decodeErr("block local without value", nil)
			}
			value, cerr := fromEnvelope(l.Value)
			if cerr != nil {
				return nil, cerr
			}
			locals[i] = blocks.Local{Name: l.Name, Value: value}
		}
		var result blocks.Node
		result, err = fromEnvelope(env.Result)
		if err != nil {
			return nil, err
		}
		n, err = blocks.NewBlock(locals, result)
	case "data":
		n, err = blocks.NewData(env.Content, declared)
	case "intrinsic":
		n, err = blocks.NewIntrinsic(env.Name, declared)
	case "placement":
		var p placements.Placement
		p, err = placements.Lookup(env.Placement)
		if err == nil {
			n, err = blocks.NewPlacement(p)
		}
	case "compiled":
		n, err = blocks.NewCompiled(env.Handle, declared)
	default:
		return nil, decodeErr("unknown node kind "+env.Kind, nil)
	}
	if err != nil {
		return nil, decodeErr("node failed re-validation", err)
	}
	if !types.Equal(declared, n.Type()) {
		return nil, &fedir.Issue{
			Code:     fedir.CodeDecode,
			Node:     env.Kind,
			Expected: env.Type,
			Actual:   n.Type().String(),
			Message:  "declared type disagrees with the reconstructed node",
		}
	}
	return n, nil
}
