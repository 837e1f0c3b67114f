package driver

import (
	"errors"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"typeck/internal/fix"
	"typeck/internal/source"
)

// ApplyFixes applies the suggested fixes of every YAML input. Binary inputs
// are skipped. Inputs without fixes are left out of the returned map.
func ApplyFixes(results []*Result, mode fix.ApplyMode, dryRun bool) (map[string]*fix.ApplyResult, error) {
	out := make(map[string]*fix.ApplyResult)
	for _, res := range results {
		if !isYAMLPath(res.Input.Path) {
			continue
		}
		applied, err := fix.Apply(res.Input.Files, res.Bag.Items(), fix.ApplyOptions{
			Mode:    mode,
			Rewrite: yamlScalar,
			DryRun:  dryRun,
		})
		if errors.Is(err, fix.ErrNoFixes) {
			continue
		}
		if err != nil {
			return out, err
		}
		out[res.Input.Path] = applied
	}
	return out, nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlScalar renders text as a YAML scalar that stays a single scalar in
// both block and flow context.
func yamlScalar(_ *source.File, text string) string {
	node := yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: text}
	if strings.ContainsAny(text, ",[]{}") {
		node.Style = yaml.DoubleQuotedStyle
	}
	data, err := yaml.Marshal(&node)
	if err != nil {
		return text
	}
	return strings.TrimSuffix(string(data), "\n")
}
