package intrinsics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/intrinsics"
	"github.com/fedlang/fedir/placements"
	"github.com/fedlang/fedir/types"
)

func TestResolve_FederatedSum(t *testing.T) {
	arg := types.MustFederated(types.Scalar(types.Int32), placements.Clients, false)

	fn, err := intrinsics.Resolve(intrinsics.FederatedSum, arg)
	require.NoError(t, err)

	want := types.Function(arg, types.MustFederated(types.Scalar(types.Int32), placements.Server, true))
	assert.True(t, types.Equal(want, fn), "got %s", fn)
}

func TestResolve_FederatedMap(t *testing.T) {
	intT := types.Scalar(types.Int32)
	boolT := types.Scalar(types.Bool)
	fnArg := types.Function(intT, boolT)
	valArg := types.MustFederated(intT, placements.Clients, false)

	fn, err := intrinsics.Resolve(intrinsics.FederatedMap, fnArg, valArg)
	require.NoError(t, err)
	assert.Equal(t, "(<(int32 -> bool),{int32}@clients> -> {bool}@clients)", fn.String())
}

func TestResolve_BroadcastRequiresAllEqual(t *testing.T) {
	atServer := types.MustFederated(types.Scalar(types.Float32), placements.Server, true)
	fn, err := intrinsics.Resolve(intrinsics.FederatedBroadcast, atServer)
	require.NoError(t, err)
	assert.Equal(t, "(float32@server -> float32@clients)", fn.String())

	notEqual := types.MustFederated(types.Scalar(types.Float32), placements.Server, false)
	_, err = intrinsics.Resolve(intrinsics.FederatedBroadcast, notEqual)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeSignatureMismatch))
}

func TestResolve_ConflictingBindings(t *testing.T) {
	// federated_zip's 'T and 'U are independent, so mixed dtypes resolve...
	a := types.MustFederated(types.Scalar(types.Int32), placements.Clients, false)
	b := types.MustFederated(types.Scalar(types.Float64), placements.Clients, false)
	fn, err := intrinsics.Resolve(intrinsics.FederatedZipAtClients, a, b)
	require.NoError(t, err)
	assert.Equal(t, "(<{int32}@clients,{float64}@clients> -> {<int32,float64>}@clients)", fn.String())

	// ...but one variable unifying against two dtypes does not.
	fnArg := types.Function(types.Scalar(types.Int32), types.Scalar(types.Bool))
	mismatched := types.MustFederated(types.Scalar(types.Float64), placements.Clients, false)
	_, err = intrinsics.Resolve(intrinsics.FederatedMap, fnArg, mismatched)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeSignatureMismatch))
}

func TestResolve_WrongPlacement(t *testing.T) {
	atServer := types.MustFederated(types.Scalar(types.Int32), placements.Server, false)
	_, err := intrinsics.Resolve(intrinsics.FederatedSum, atServer)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeSignatureMismatch))

	is, ok := fedir.AsIssue(err)
	require.True(t, ok)
	assert.Equal(t, intrinsics.FederatedSum, is.Name)
	assert.NotEmpty(t, is.Expected)
	assert.NotEmpty(t, is.Actual)
}

func TestResolve_ArgumentCount(t *testing.T) {
	_, err := intrinsics.Resolve(intrinsics.FederatedSum)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeSignatureMismatch))
}

func TestResolve_UnknownIntrinsic(t *testing.T) {
	_, err := intrinsics.Resolve("federated_frobnicate", types.Scalar(types.Int32))
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeUnknownIntrinsic))
}

func TestRegister_AppendOnly(t *testing.T) {
	tmpl := types.MustParse("('T -> 'T@server)").(*types.FunctionType)
	require.NoError(t, intrinsics.Register("register_test_op", tmpl))

	err := intrinsics.Register("register_test_op", tmpl)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeDuplicateRegistration))
}

func TestLoadManifest(t *testing.T) {
	doc := []byte(`
intrinsics:
  - name: manifest_test_secure_sum
    signature: "({'T}@clients -> 'T@server)"
  - name: manifest_test_noise
    signature: "(float64@server -> float64@server)"
`)
	require.NoError(t, intrinsics.LoadManifest(doc))

	arg := types.MustFederated(types.Scalar(types.Int64), placements.Clients, false)
	fn, err := intrinsics.Resolve("manifest_test_secure_sum", arg)
	require.NoError(t, err)
	assert.Equal(t, "({int64}@clients -> int64@server)", fn.String())
}

func TestLoadManifest_Rejects(t *testing.T) {
	err := intrinsics.LoadManifest([]byte("intrinsics: {not: a list}"))
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeDecode))

	err = intrinsics.LoadManifest([]byte(`
intrinsics:
  - name: manifest_test_bad
    signature: "not a type"
`))
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeSignatureMismatch))

	err = intrinsics.LoadManifest([]byte(`
intrinsics:
  - name: manifest_test_not_fn
    signature: "int32"
`))
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeSignatureMismatch))
}
