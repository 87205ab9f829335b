package blocks

import (
	"bytes"
	"sort"

	"github.com/fedlang/fedir/types"
)

// Equal reports structural equality over tag, type and payload, recursively.
// It is meant for tree diffing in tests and transformation passes, not for
// runtime dispatch.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() || !types.Equal(a.Type(), b.Type()) {
		return false
	}
	switch an := a.(type) {
	case *Reference:
		return an.Name() == b.(*Reference).Name()
	case *Selection:
		bn := b.(*Selection)
		aName, _ := an.Name()
		bName, _ := bn.Name()
		return an.Index() == bn.Index() && aName == bName && Equal(an.Source(), bn.Source())
	case *Struct:
		bn := b.(*Struct)
		if an.Len() != bn.Len() {
			return false
		}
		for i := 0; i < an.Len(); i++ {
			ae, be := an.Element(i), bn.Element(i)
			if ae.Name != be.Name || !Equal(ae.Value, be.Value) {
				return false
			}
		}
		return true
	case *Call:
		bn := b.(*Call)
		if (an.Arg() == nil) != (bn.Arg() == nil) {
			return false
		}
		if an.Arg() != nil && !Equal(an.Arg(), bn.Arg()) {
			return false
		}
		return Equal(an.Fn(), bn.Fn())
	case *Lambda:
		bn := b.(*Lambda)
		return an.ParamName() == bn.ParamName() &&
			types.Equal(an.ParamType(), bn.ParamType()) &&
			Equal(an.Body(), bn.Body())
	case *Block:
		bn := b.(*Block)
		if an.Len() != bn.Len() {
			return false
		}
		for i := 0; i < an.Len(); i++ {
			al, bl := an.Local(i), bn.Local(i)
			if al.Name != bl.Name || !Equal(al.Value, bl.Value) {
				return false
			}
		}
		return Equal(an.Result(), bn.Result())
	case *Data:
		return bytes.Equal(an.Content(), b.(*Data).Content())
	case *Intrinsic:
		return an.Name() == b.(*Intrinsic).Name()
	case *Placement:
		return an.Placement() == b.(*Placement).Placement()
	case *Compiled:
		return an.Handle() == b.(*Compiled).Handle()
	default:
		return false
	}
}

// FreeReferences returns the sorted names referenced by n but bound by no
// enclosing lambda or block within n.
func FreeReferences(n Node) []string {
	free := map[string]bool{}
	collectFree(n, map[string]int{}, free)
	out := make([]string, 0, len(free))
	for name := range free {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func collectFree(n Node, bound map[string]int, free map[string]bool) {
	switch nn := n.(type) {
	case *Reference:
		if bound[nn.Name()] == 0 {
			free[nn.Name()] = true
		}
	case *Selection:
		collectFree(nn.Source(), bound, free)
	case *Struct:
		for i := 0; i < nn.Len(); i++ {
			collectFree(nn.Element(i).Value, bound, free)
		}
	case *Call:
		collectFree(nn.Fn(), bound, free)
		if nn.Arg() != nil {
			collectFree(nn.Arg(), bound, free)
		}
	case *Lambda:
		bound[nn.ParamName()]++
		collectFree(nn.Body(), bound, free)
		bound[nn.ParamName()]--
	case *Block:
		entered := make([]string, 0, nn.Len())
		for i := 0; i < nn.Len(); i++ {
			l := nn.Local(i)
			// The value sees only earlier locals.
			collectFree(l.Value, bound, free)
			bound[l.Name]++
			entered = append(entered, l.Name)
		}
		collectFree(nn.Result(), bound, free)
		for _, name := range entered {
			bound[name]--
		}
	case *Data, *Intrinsic, *Placement, *Compiled:
		// leaves
	}
}
