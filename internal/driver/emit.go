package driver

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"typeck/internal/hir"
	"typeck/internal/source"
	"typeck/internal/typeck"
	"typeck/internal/types"
)

// ResultsDump is the YAML shape of --emit-results.
type ResultsDump struct {
	Path  string     `yaml:"path"`
	Units []UnitDump `yaml:"units"`
}

// UnitDump describes the published results of one typeck root.
type UnitDump struct {
	Name             string     `yaml:"name"`
	Kind             string     `yaml:"kind"`
	Sig              string     `yaml:"sig"`
	Value            string     `yaml:"value"`
	Tainted          bool       `yaml:"tainted,omitempty"`
	Errors           int        `yaml:"errors"`
	UsedTraitImports []string   `yaml:"used_trait_imports,omitempty"`
	Nodes            []NodeDump `yaml:"nodes,omitempty"`
}

// NodeDump is the type of one expression or pattern.
type NodeDump struct {
	ID   uint32 `yaml:"id"`
	Kind string `yaml:"kind"`
	At   string `yaml:"at,omitempty"`
	Type string `yaml:"type"`
}

// DumpResults converts the results of a fresh check. It returns nil for
// results served from the disk cache.
func DumpResults(res *Result, withNodes bool) *ResultsDump {
	cx := res.Context
	if cx == nil {
		return nil
	}
	prog, in := cx.Prog, cx.Types
	out := &ResultsDump{Path: res.Input.Path}
	for _, def := range cx.Roots() {
		r := cx.Typeck(def)
		u := prog.MustUnit(def)
		unit := UnitDump{
			Name:    prog.Name(def),
			Kind:    u.Kind.String(),
			Sig:     r.SigSource().String(),
			Value:   types.Label(in, r.ValueType()),
			Tainted: r.Tainted(),
			Errors:  r.ErrorCount(),
		}
		for _, use := range r.UsedTraitImports() {
			unit.UsedTraitImports = append(unit.UsedTraitImports, prog.Name(use))
		}
		if withNodes {
			unit.Nodes = dumpNodes(prog, in, r)
		}
		out.Units = append(out.Units, unit)
	}
	return out
}

func dumpNodes(prog *hir.Program, in *types.Interner, r *typeck.TypeckResults) []NodeDump {
	var nodes []NodeDump
	r.EachNodeType(func(id hir.NodeID, t types.TypeID) {
		n := NodeDump{ID: uint32(id), Type: types.Label(in, t)}
		var span source.Span
		if e := prog.Expr(id); e != nil {
			n.Kind = e.Kind.String()
			span = e.Span
		} else if p := prog.Pat(id); p != nil {
			n.Kind = "pat"
			span = p.Span
		}
		if span.File != 0 && prog.Files != nil {
			start, _ := prog.Files.Resolve(span)
			n.At = start.String()
		}
		nodes = append(nodes, n)
	})
	return nodes
}

// EmitResults writes the dumps of results as a YAML stream, one document
// per input.
func EmitResults(w io.Writer, results []*Result, withNodes bool) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, res := range results {
		dump := DumpResults(res, withNodes)
		if dump == nil {
			continue
		}
		if err := enc.Encode(dump); err != nil {
			return fmt.Errorf("emit results for %s: %w", res.Input.Path, err)
		}
	}
	return enc.Close()
}
