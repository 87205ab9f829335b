// Package placements is the process-wide catalog of placement literals: the
// distinguishable roles a federated value can live at. The catalog is
// append-only; registration happens during bootstrap, reads are safe for
// concurrent callers afterwards.
package placements

import (
	"sync"

	fedir "github.com/fedlang/fedir"
)

// Cardinality classifies how many logical locations a placement denotes.
type Cardinality int

const (
	One  Cardinality = iota // Exactly one location (a coordinator).
	Many                    // An unbounded group of locations.
)

func (c Cardinality) String() string {
	if c == One {
		return "ONE"
	}
	return "MANY"
}

// Placement identifies one registered role. Values are only obtainable from
// Register/Lookup, so holding a Placement proves the role is in the catalog.
type Placement struct {
	name        string
	cardinality Cardinality
}

func (p Placement) Name() string             { return p.name }
func (p Placement) Cardinality() Cardinality { return p.cardinality }
func (p Placement) String() string           { return p.name }

// IsZero reports whether p was never issued by the registry.
func (p Placement) IsZero() bool { return p.name == "" }

var (
	mu    sync.RWMutex
	table = map[string]Placement{}
)

// Built-in placements, registered before any user code runs.
var (
	// Server is the single coordinating role.
	Server = mustRegister("server", One)
	// Clients is the unbounded pool of participant roles.
	Clients = mustRegister("clients", Many)
)

// Register adds a placement to the catalog. The name must be a non-empty
// identifier ([A-Za-z_][A-Za-z0-9_]*) so that the "@name" suffix of canonical
// type strings stays parseable. Placements are never removed or redefined;
// registering a name twice fails and leaves the first entry intact. Callers
// must not register placements after federated types referencing the catalog
// are already in circulation.
func Register(name string, c Cardinality) (Placement, error) {
	if !validName(name) {
		return Placement{}, &fedir.Issue{
			Code:    fedir.CodeTypeConstruction,
			Node:    "placement",
			Name:    name,
			Message: "placement name must be a non-empty identifier",
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := table[name]; ok {
		return Placement{}, &fedir.Issue{
			Code:    fedir.CodeDuplicateRegistration,
			Node:    "placement",
			Name:    name,
			Message: "placement already registered",
		}
	}
	p := Placement{name: name, cardinality: c}
	table[name] = p
	return p, nil
}

// Lookup resolves a registered placement by name.
func Lookup(name string) (Placement, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := table[name]
	if !ok {
		return Placement{}, &fedir.Issue{
			Code:    fedir.CodeUnknownPlacement,
			Node:    "placement",
			Name:    name,
			Message: "placement not registered",
		}
	}
	return p, nil
}

// Names returns the registered placement names in unspecified order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(table))
	for n := range table {
		out = append(out, n)
	}
	return out
}

func validName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return len(name) > 0
}

func mustRegister(name string, c Cardinality) Placement {
	p, err := Register(name, c)
	if err != nil {
		panic(err)
	}
	return p
}
