package normalize

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed abbreviations.yaml
var abbreviationsYAML []byte

var expansions = mustLoadExpansions()

func mustLoadExpansions() map[string]string {
	var doc struct {
		Abbreviations map[string]string `yaml:"abbreviations"`
	}
	if err := yaml.Unmarshal(abbreviationsYAML, &doc); err != nil {
		panic(err)
	}
	table := make(map[string]string, len(doc.Abbreviations))
	for k, v := range doc.Abbreviations {
		table[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return table
}

// ExpandAbbreviation expands a known organization abbreviation to its full
// name. Unknown names pass through unchanged.
func ExpandAbbreviation(name string) (string, bool) {
	expanded, ok := expansions[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return name, false
	}
	return expanded, true
}
