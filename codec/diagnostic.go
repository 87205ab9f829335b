package codec

import (
	"bytes"

	"github.com/goccy/go-json"

	fedir "github.com/fedlang/fedir"
	"github.com/fedlang/fedir/blocks"
)

// MarshalDiagnostic renders the exchange envelope of a tree as indented JSON,
// trailing newline included. The output is for humans and golden tests;
// Encode remains the exchange format proper.
func MarshalDiagnostic(n blocks.Node) ([]byte, error) {
	if n == nil {
		return nil, &fedir.Issue{
			Code:    fedir.CodeMalformedNode,
			Node:    "codec",
			Message: "nil node",
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload{Version: Version, Root: toEnvelope(n)}); err != nil {
		return nil, &fedir.Issue{
			Code:    fedir.CodeEncode,
			Node:    "codec",
			Message: "JSON encoding failed",
			Cause:   err,
		}
	}
	return buf.Bytes(), nil
}
