package normalize

import (
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schemas.yaml
var schemasYAML []byte

// Schema declares how one source's raw keys map onto canonical fields.
// Priority orders sources for field survivorship during merges; higher wins.
type Schema struct {
	Name     string            `yaml:"name"`
	Priority int               `yaml:"priority"`
	Fields   map[string]string `yaml:"fields"`
}

// Registry is the finite set of supported source schemas, passed into the
// normalizer at construction time.
type Registry struct {
	schemas map[string]Schema
}

func NewRegistry(schemas ...Schema) *Registry {
	r := &Registry{schemas: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		r.schemas[s.Name] = s
	}
	return r
}

// LoadRegistry parses a YAML schema registry.
func LoadRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Schemas []Schema `yaml:"schemas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse schema registry")
	}
	return NewRegistry(doc.Schemas...), nil
}

// DefaultRegistry returns the registry built from the embedded schema table.
func DefaultRegistry() *Registry {
	registry, err := LoadRegistry(schemasYAML)
	if err != nil {
		panic(err)
	}
	return registry
}

func (r *Registry) Get(name string) (Schema, error) {
	schema, ok := r.schemas[name]
	if !ok {
		return Schema{}, errors.Wrapf(ErrUnsupportedSource, "schema %q", name)
	}
	return schema, nil
}

// Priority returns the survivorship priority of a source, or zero for
// sources outside the registry (inferred provenance ranks below everything).
func (r *Registry) Priority(source string) int {
	return r.schemas[source].Priority
}
