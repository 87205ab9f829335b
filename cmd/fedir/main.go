// Command fedir inspects serialized federated computations: it decodes an
// exchange payload (re-validating every node), prints the diagnostic JSON
// form, or reports the content fingerprint.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fedlang/fedir/codec"
	"github.com/fedlang/fedir/intrinsics"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "print":
		printCmd(os.Args[2:])
	case "fingerprint":
		fingerprintCmd(os.Args[2:])
	case "check-manifest":
		checkManifestCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `fedir CLI

Usage:
  fedir print -in payload.bin            decode a payload and print its JSON form
  fedir fingerprint -in payload.bin      decode a payload and print its blake3 digest
  fedir check-manifest -in manifest.yaml load an intrinsic manifest and list the catalog`)
}

func decodeFile(fs *flag.FlagSet, args []string) ([]byte, string) {
	var in string
	fs.StringVar(&in, "in", "", "input file")
	_ = fs.Parse(args)
	if in == "" {
		fs.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(in)
	if err != nil {
		fatal(err)
	}
	return data, in
}

func printCmd(args []string) {
	data, _ := decodeFile(flag.NewFlagSet("print", flag.ExitOnError), args)
	tree, err := codec.Decode(data)
	if err != nil {
		fatal(err)
	}
	out, err := codec.MarshalDiagnostic(tree)
	if err != nil {
		fatal(err)
	}
	os.Stdout.Write(out)
}

func fingerprintCmd(args []string) {
	data, _ := decodeFile(flag.NewFlagSet("fingerprint", flag.ExitOnError), args)
	tree, err := codec.Decode(data)
	if err != nil {
		fatal(err)
	}
	sum, err := codec.HexFingerprint(tree)
	if err != nil {
		fatal(err)
	}
	fmt.Println(sum)
}

func checkManifestCmd(args []string) {
	data, in := decodeFile(flag.NewFlagSet("check-manifest", flag.ExitOnError), args)
	if err := intrinsics.LoadManifest(data); err != nil {
		fatal(err)
	}
	fmt.Printf("%s: ok\n", in)
	for _, name := range intrinsics.Names() {
		sig, err := intrinsics.Lookup(name)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("  %s %s\n", name, sig.Template)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fedir:", err)
	os.Exit(1)
}
