// Package scoreio encodes and decodes a program.Program as JSON. It is a
// stand-in for the script compiler's output format: spec §1 places the
// script lexer/parser/symbol-table out of this core's scope, so scoreio
// gives the CLI and tests a concrete, readable way to construct and
// persist a Program without implementing that grammar.
package scoreio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cbegin/saugo/internal/program"
)

// Encode writes prog as JSON to w.
func Encode(w io.Writer, prog *program.Program) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(prog); err != nil {
		return fmt.Errorf("scoreio: encode: %w", err)
	}
	return nil
}

// Decode reads a JSON-encoded Program from r and validates it.
func Decode(r io.Reader) (*program.Program, error) {
	var prog program.Program
	if err := json.NewDecoder(r).Decode(&prog); err != nil {
		return nil, fmt.Errorf("scoreio: decode: %w", err)
	}
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return &prog, nil
}

// Load reads a Program from a JSON file at path.
func Load(path string) (*program.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scoreio: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Save writes prog as JSON to a file at path.
func Save(path string, prog *program.Program) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("scoreio: create %s: %w", path, err)
	}
	defer f.Close()
	return Encode(f, prog)
}
