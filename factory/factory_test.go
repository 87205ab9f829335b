package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/blocks"
	"github.com/fedlang/fedir/factory"
	"github.com/fedlang/fedir/intrinsics"
	"github.com/fedlang/fedir/placements"
	"github.com/fedlang/fedir/types"
)

var int32T = types.Scalar(types.Int32)

func TestIntrinsicCall_SingleArg(t *testing.T) {
	clientsInts := types.MustFederated(int32T, placements.Clients, false)
	ds, err := blocks.NewData([]byte("d"), clientsInts)
	require.NoError(t, err)

	call, err := factory.IntrinsicCall(intrinsics.FederatedSum, ds)
	require.NoError(t, err)
	assert.Equal(t, "int32@server", call.Type().String())

	intr, ok := call.Fn().(*blocks.Intrinsic)
	require.True(t, ok)
	assert.Equal(t, intrinsics.FederatedSum, intr.Name())
}

func TestIntrinsicCall_PacksMultipleArgs(t *testing.T) {
	clientsInts := types.MustFederated(int32T, placements.Clients, false)
	ds, err := blocks.NewData([]byte("d"), clientsInts)
	require.NoError(t, err)
	double, err := factory.Identity(int32T)
	require.NoError(t, err)

	call, err := factory.IntrinsicCall(intrinsics.FederatedMap, double, ds)
	require.NoError(t, err)
	assert.Equal(t, "{int32}@clients", call.Type().String())

	packed, ok := call.Arg().(*blocks.Struct)
	require.True(t, ok)
	assert.Equal(t, 2, packed.Len())
}

func TestIntrinsicCall_PropagatesErrors(t *testing.T) {
	serverInts, err := types.NewFederated(int32T, placements.Server, true)
	require.NoError(t, err)
	ds, err := blocks.NewData([]byte("d"), serverInts)
	require.NoError(t, err)

	_, err = factory.IntrinsicCall(intrinsics.FederatedSum, ds)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeSignatureMismatch))

	_, err = factory.IntrinsicCall("federated_frobnicate", ds)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeUnknownIntrinsic))
}

func TestIdentity(t *testing.T) {
	lam, err := factory.Identity(int32T)
	require.NoError(t, err)
	assert.Equal(t, "(int32 -> int32)", lam.Type().String())
	assert.Empty(t, blocks.FreeReferences(lam))
}

func TestCalledLambda(t *testing.T) {
	seven, err := blocks.NewData([]byte{7}, int32T)
	require.NoError(t, err)
	body, err := blocks.NewReference("x", int32T)
	require.NoError(t, err)

	call, err := factory.CalledLambda("x", int32T, body, seven)
	require.NoError(t, err)
	assert.True(t, types.Equal(int32T, call.Type()))

	mismatch, err := blocks.NewData([]byte{7}, types.Scalar(types.Float64))
	require.NoError(t, err)
	_, err = factory.CalledLambda("x", int32T, body, mismatch)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeArgumentTypeMismatch))
}
