package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/types"
)

func TestParse_RoundTripsCanonicalStrings(t *testing.T) {
	cases := []string{
		"int32",
		"bytes",
		"float32*",
		"int32**",
		"( -> bool)",
		"(int32 -> bool)",
		"(<a=int32,b=float64> -> string)",
		"<>",
		"<int32,int32>",
		"<a=int32,float64>",
		"int32@server",
		"{int32}@clients",
		"{<a=int32,b=bool>}@clients",
		"int32*@server",
		"placement",
		"'T",
		"(<('T -> 'U),{'T}@clients> -> {'U}@clients)",
	}
	for _, s := range cases {
		parsed, err := types.Parse(s)
		require.NoError(t, err, "parse %q", s)
		assert.Equal(t, s, parsed.String(), "canonical form must survive the round trip")
	}
}

func TestParse_AcceptsSpaces(t *testing.T) {
	parsed, err := types.Parse(" < a = int32 , b = bool > ")
	require.NoError(t, err)
	assert.Equal(t, "<a=int32,b=bool>", parsed.String())
}

func TestParse_Rejects(t *testing.T) {
	cases := []string{
		"",
		"int33",
		"<a=int32",
		"<a=int32;b=bool>",
		"int32@nowhere",         // unregistered placement
		"{int32@server}@server", // nested federated member
		"(int32 -> )",
		"int32 bool",
		"''",
	}
	for _, s := range cases {
		_, err := types.Parse(s)
		require.Error(t, err, "parse %q must fail", s)
		code := fedir.CodeOf(err)
		assert.Contains(t,
			[]string{fedir.CodeTypeConstruction, fedir.CodeUnknownPlacement}, code,
			"parse %q returned code %q", s, code)
	}
}
