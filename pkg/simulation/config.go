package simulation

import "fmt"

// Manifest describes a simulation as declared in its simulation.yaml
type Manifest struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Version     string      `yaml:"version"`
	Category    string      `yaml:"category"`
	Parameters  []Parameter `yaml:"parameters"`
}

// Parameter declares a tunable the CLI resolves before a run.
// Type is one of: integer, float, string, duration, boolean.
type Parameter struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"`
	Description string      `yaml:"description"`
	Default     interface{} `yaml:"default"`
	Required    bool        `yaml:"required"`
	Min         interface{} `yaml:"min,omitempty"`
	Max         interface{} `yaml:"max,omitempty"`
	Options     []string    `yaml:"options,omitempty"`
}

var parameterTypes = map[string]bool{
	"integer":  true,
	"float":    true,
	"string":   true,
	"duration": true,
	"boolean":  true,
}

// Validate checks that the manifest names a simulation and that every
// declared parameter has a recognized type.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest is missing a simulation name")
	}
	for _, p := range m.Parameters {
		if p.Name == "" {
			return fmt.Errorf("manifest %q declares a parameter with no name", m.Name)
		}
		if !parameterTypes[p.Type] {
			return fmt.Errorf("parameter %q has unknown type %q", p.Name, p.Type)
		}
	}
	return nil
}
