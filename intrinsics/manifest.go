package intrinsics

import (
	"gopkg.in/yaml.v3"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/types"
)

// Manifest is the YAML bootstrap document for external intrinsic catalogs:
//
//	intrinsics:
//	  - name: secure_sum
//	    signature: "({'T}@clients -> 'T@server)"
//
// Signatures use the canonical type string form accepted by types.Parse.
type Manifest struct {
	Intrinsics []ManifestEntry `yaml:"intrinsics"`
}

// ManifestEntry declares one intrinsic to register.
type ManifestEntry struct {
	Name      string `yaml:"name"`
	Signature string `yaml:"signature"`
}

// LoadManifest parses a YAML manifest and registers every entry, in order.
// Loading stops at the first failure; entries registered before the failure
// remain in the catalog (the catalog is append-only and never rolls back).
// Like direct Register calls, manifests must be loaded during bootstrap,
// before concurrent resolution begins.
func LoadManifest(data []byte) error {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return &fedir.Issue{
			Code:    fedir.CodeDecode,
			Node:    "intrinsic manifest",
			Message: "invalid YAML",
			Cause:   err,
		}
	}
	for _, entry := range m.Intrinsics {
		parsed, err := types.Parse(entry.Signature)
		if err != nil {
			return &fedir.Issue{
				Code:    fedir.CodeSignatureMismatch,
				Node:    "intrinsic manifest",
				Name:    entry.Name,
				Actual:  entry.Signature,
				Message: "signature does not parse",
				Cause:   err,
			}
		}
		template, ok := parsed.(*types.FunctionType)
		if !ok {
			return &fedir.Issue{
				Code:    fedir.CodeSignatureMismatch,
				Node:    "intrinsic manifest",
				Name:    entry.Name,
				Actual:  parsed.String(),
				Message: "signature must be a function type",
			}
		}
		if err := Register(entry.Name, template); err != nil {
			return err
		}
	}
	return nil
}
