package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlang/fedir/blocks"
	"github.com/fedlang/fedir/factory"
	"github.com/fedlang/fedir/intrinsics"
	"github.com/fedlang/fedir/placements"
	"github.com/fedlang/fedir/transform"
	"github.com/fedlang/fedir/types"
)

var int32T = types.Scalar(types.Int32)

func data(t *testing.T, typ types.Type) *blocks.Data {
	t.Helper()
	d, err := blocks.NewData([]byte("d"), typ)
	require.NoError(t, err)
	return d
}

func TestRewrite_SharesUnchangedSubtrees(t *testing.T) {
	pair, err := blocks.NewStruct([]blocks.Element{
		{Name: "a", Value: data(t, int32T)},
		{Name: "b", Value: data(t, types.Scalar(types.Float64))},
	})
	require.NoError(t, err)

	same, changed, err := transform.Rewrite(pair, func(n blocks.Node) (blocks.Node, bool, error) {
		return n, false, nil
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, blocks.Node(pair), same, "untouched trees are returned as-is")
}

func TestRewrite_RebuildsChangedSpine(t *testing.T) {
	left := data(t, int32T)
	pair, err := blocks.NewStruct([]blocks.Element{
		{Name: "a", Value: left},
		{Name: "b", Value: data(t, int32T)},
	})
	require.NoError(t, err)

	replacement, err := blocks.NewReference("r", int32T)
	require.NoError(t, err)
	out, changed, err := transform.Rewrite(pair, func(n blocks.Node) (blocks.Node, bool, error) {
		if n == blocks.Node(left) {
			return replacement, true, nil
		}
		return n, false, nil
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, types.Equal(pair.Type(), out.Type()))

	rebuilt, ok := out.(*blocks.Struct)
	require.True(t, ok)
	assert.Equal(t, blocks.KindReference, rebuilt.Element(0).Value.Kind())
	assert.Same(t, blocks.Node(pair.Element(1).Value), rebuilt.Element(1).Value,
		"unchanged siblings keep their identity")
}

func TestReplaceCalledLambdas(t *testing.T) {
	body, err := blocks.NewReference("x", int32T)
	require.NoError(t, err)
	call, err := factory.CalledLambda("x", int32T, body, data(t, int32T))
	require.NoError(t, err)

	out, changed, err := transform.ReplaceCalledLambdas(call)
	require.NoError(t, err)
	assert.True(t, changed)

	blk, ok := out.(*blocks.Block)
	require.True(t, ok)
	assert.Equal(t, 1, blk.Len())
	assert.Equal(t, "x", blk.Local(0).Name)
	assert.True(t, types.Equal(call.Type(), blk.Type()))
}

func TestRemoveMappedIdentity(t *testing.T) {
	clientsInts := types.MustFederated(int32T, placements.Clients, false)
	id, err := factory.Identity(int32T)
	require.NoError(t, err)
	mapped, err := factory.IntrinsicCall(intrinsics.FederatedMap, id, data(t, clientsInts))
	require.NoError(t, err)

	out, changed, err := transform.RemoveMappedIdentity(mapped)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, blocks.KindData, out.Kind())
	assert.True(t, types.Equal(mapped.Type(), out.Type()))

	// A non-identity mapping is left alone.
	refY, err := blocks.NewReference("y", int32T)
	require.NoError(t, err)
	sel, err := blocks.NewStruct([]blocks.Element{{Value: refY}})
	require.NoError(t, err)
	proj, err := blocks.NewSelectionIndex(sel, 0)
	require.NoError(t, err)
	wrap, err := blocks.NewLambda("y", int32T, proj)
	require.NoError(t, err)
	kept, err := factory.IntrinsicCall(intrinsics.FederatedMap, wrap, data(t, clientsInts))
	require.NoError(t, err)

	out, changed, err = transform.RemoveMappedIdentity(kept)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, blocks.Equal(kept, out))
}

func TestInlineBlockLocals(t *testing.T) {
	// block [x=d, y=ref(x)] in struct<ref(y)> collapses to struct<d>.
	d := data(t, int32T)
	refX, err := blocks.NewReference("x", int32T)
	require.NoError(t, err)
	refY, err := blocks.NewReference("y", int32T)
	require.NoError(t, err)
	result, err := blocks.NewStruct([]blocks.Element{{Name: "out", Value: refY}})
	require.NoError(t, err)
	blk, err := blocks.NewBlock(
		[]blocks.Local{{Name: "x", Value: d}, {Name: "y", Value: refX}},
		result,
	)
	require.NoError(t, err)

	out, changed, err := transform.InlineBlockLocals(blk)
	require.NoError(t, err)
	assert.True(t, changed)

	st, ok := out.(*blocks.Struct)
	require.True(t, ok)
	assert.True(t, blocks.Equal(d, st.Element(0).Value))
	assert.True(t, types.Equal(blk.Type(), out.Type()))
	assert.Empty(t, blocks.FreeReferences(out))
}

func TestUniquifyReferenceNames(t *testing.T) {
	// Two lambdas both binding "x"; after uniquify the names differ and no
	// reference dangles.
	refInner, err := blocks.NewReference("x", int32T)
	require.NoError(t, err)
	inner, err := blocks.NewLambda("x", int32T, refInner)
	require.NoError(t, err)
	innerCall, err := blocks.NewCall(inner, refInner)
	require.NoError(t, err)
	outer, err := blocks.NewLambda("x", int32T, innerCall)
	require.NoError(t, err)

	out, changed, err := transform.UniquifyReferenceNames(outer)
	require.NoError(t, err)
	assert.True(t, changed)

	lam, ok := out.(*blocks.Lambda)
	require.True(t, ok)
	call := lam.Body().(*blocks.Call)
	nested := call.Fn().(*blocks.Lambda)
	assert.NotEqual(t, lam.ParamName(), nested.ParamName())
	assert.Empty(t, blocks.FreeReferences(out))
	assert.True(t, types.Equal(outer.Type(), out.Type()))

	// Free references keep their names.
	free, err := blocks.NewReference("free", int32T)
	require.NoError(t, err)
	out, _, err = transform.UniquifyReferenceNames(free)
	require.NoError(t, err)
	assert.Equal(t, []string{"free"}, blocks.FreeReferences(out))
}

func TestPipeline_UniquifyTheInline(t *testing.T) {
	// (x -> x)(d) then inline yields d.
	body, err := blocks.NewReference("x", int32T)
	require.NoError(t, err)
	d := data(t, int32T)
	call, err := factory.CalledLambda("x", int32T, body, d)
	require.NoError(t, err)

	step1, _, err := transform.UniquifyReferenceNames(call)
	require.NoError(t, err)
	step2, _, err := transform.ReplaceCalledLambdas(step1)
	require.NoError(t, err)
	step3, changed, err := transform.InlineBlockLocals(step2)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, blocks.Equal(d, step3))
}
