// Package matrix defines the post-publish interaction matrix: the ordered
// list of checks run against a published site.
package matrix

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"sitegate/internal/probe"

	"gopkg.in/yaml.v3"
)

// Definition is the on-disk (YAML) form of a matrix.
type Definition struct {
	// Target overrides the site URL when the command line does not set one.
	Target string       `yaml:"target,omitempty"`
	Checks []probe.Spec `yaml:"checks"`
}

// Load reads a YAML matrix definition. Unknown fields are rejected.
func Load(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to open matrix file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, errors.New("matrix definition is empty")
		}
		return Definition{}, fmt.Errorf("failed to decode matrix definition: %w", err)
	}
	if len(def.Checks) == 0 {
		return Definition{}, errors.New("matrix definition has no checks")
	}
	return def, nil
}

// Encode writes def as YAML.
func Encode(w io.Writer, def Definition) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Build turns the definition into runnable checks.
func (d Definition) Build(t probe.Timing) ([]probe.Check, error) {
	return probe.BuildAll(d.Checks, t)
}
