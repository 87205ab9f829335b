package placements_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/placements"
)

func TestBuiltins(t *testing.T) {
	p, err := placements.Lookup("server")
	require.NoError(t, err)
	assert.Equal(t, placements.Server, p)
	assert.Equal(t, placements.One, p.Cardinality())

	p, err = placements.Lookup("clients")
	require.NoError(t, err)
	assert.Equal(t, placements.Clients, p)
	assert.Equal(t, placements.Many, p.Cardinality())
}

func TestLookup_Unknown(t *testing.T) {
	_, err := placements.Lookup("aggregators")
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeUnknownPlacement))
}

func TestRegister_AppendOnly(t *testing.T) {
	first, err := placements.Register("edge_test", placements.Many)
	require.NoError(t, err)

	// A second registration fails and leaves the first entry intact.
	_, err = placements.Register("edge_test", placements.One)
	require.Error(t, err)
	assert.True(t, fedir.IsCode(err, fedir.CodeDuplicateRegistration))

	got, err := placements.Lookup("edge_test")
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, placements.Many, got.Cardinality())
}

func TestRegister_NameMustBeIdentifier(t *testing.T) {
	// Placement names appear as the "@name" suffix of canonical type strings,
	// so they are held to identifier syntax.
	for _, name := range []string{"", "edge nodes", "all@once", "clients,too", "9lives"} {
		_, err := placements.Register(name, placements.One)
		require.Error(t, err, "name %q must be rejected", name)
		assert.True(t, fedir.IsCode(err, fedir.CodeTypeConstruction))
	}
}

func TestLookup_ConcurrentReads(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := placements.Lookup("server"); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestZeroValue(t *testing.T) {
	var zero placements.Placement
	assert.True(t, zero.IsZero())
	assert.False(t, placements.Server.IsZero())
}
