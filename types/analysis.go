package types

// Equal reports strict structural equality: dtypes, element lists (names
// included), placements and the all-equal flag must all match.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case *ScalarType:
		return at.DType() == b.(*ScalarType).DType()
	case *StructType:
		bt := b.(*StructType)
		if at.Len() != bt.Len() {
			return false
		}
		for i := 0; i < at.Len(); i++ {
			ae, be := at.Element(i), bt.Element(i)
			if ae.Name != be.Name || !Equal(ae.Type, be.Type) {
				return false
			}
		}
		return true
	case *FunctionType:
		bt := b.(*FunctionType)
		if (at.Parameter() == nil) != (bt.Parameter() == nil) {
			return false
		}
		if at.Parameter() != nil && !Equal(at.Parameter(), bt.Parameter()) {
			return false
		}
		return Equal(at.Result(), bt.Result())
	case *SequenceType:
		return Equal(at.Element(), b.(*SequenceType).Element())
	case *FederatedType:
		bt := b.(*FederatedType)
		return at.Placement() == bt.Placement() &&
			at.AllEqual() == bt.AllEqual() &&
			Equal(at.Member(), bt.Member())
	case *PlacementType:
		return true
	case *AbstractType:
		return at.Label() == b.(*AbstractType).Label()
	default:
		return false
	}
}

// IsAssignableFrom reports whether a value of type source can be used where a
// value of type target is expected.
//
// Rules:
//   - Scalars require exact dtype equality; there is no numeric coercion.
//   - Structs of equal length match by name (order-insensitive) when both
//     sides are fully named; otherwise position-wise with exact name equality.
//     Partially-named structs therefore never match a differently-named shape.
//   - Functions are contravariant in the parameter and covariant in the result.
//   - Sequences are covariant in the element.
//   - Federated types need the same placement, an assignable member, and the
//     all-equal flag may only weaken: a not-all-equal target accepts an
//     all-equal source, never the reverse.
//   - Abstract types are template variables, not value types; they are never
//     assignable in either direction.
func IsAssignableFrom(target, source Type) bool {
	if target == nil || source == nil {
		return false
	}
	if target.Kind() == KindAbstract || source.Kind() == KindAbstract {
		return false
	}
	if target.Kind() != source.Kind() {
		return false
	}
	switch tt := target.(type) {
	case *ScalarType:
		return tt.DType() == source.(*ScalarType).DType()
	case *StructType:
		return structAssignable(tt, source.(*StructType))
	case *FunctionType:
		st := source.(*FunctionType)
		if (tt.Parameter() == nil) != (st.Parameter() == nil) {
			return false
		}
		if tt.Parameter() != nil && !IsAssignableFrom(st.Parameter(), tt.Parameter()) {
			return false
		}
		return IsAssignableFrom(tt.Result(), st.Result())
	case *SequenceType:
		return IsAssignableFrom(tt.Element(), source.(*SequenceType).Element())
	case *FederatedType:
		st := source.(*FederatedType)
		if tt.Placement() != st.Placement() {
			return false
		}
		if tt.AllEqual() && !st.AllEqual() {
			return false
		}
		return IsAssignableFrom(tt.Member(), st.Member())
	case *PlacementType:
		return true
	default:
		return false
	}
}

func structAssignable(target, source *StructType) bool {
	if target.Len() != source.Len() {
		return false
	}
	if target.FullyNamed() && source.FullyNamed() {
		for i := 0; i < target.Len(); i++ {
			te := target.Element(i)
			j := source.IndexOf(te.Name)
			if j < 0 || !IsAssignableFrom(te.Type, source.Element(j).Type) {
				return false
			}
		}
		return true
	}
	for i := 0; i < target.Len(); i++ {
		te, se := target.Element(i), source.Element(i)
		if te.Name != se.Name || !IsAssignableFrom(te.Type, se.Type) {
			return false
		}
	}
	return true
}
