package models

// SourceSpec is one configured image channel.
type SourceSpec struct {
	Name         string     `yaml:"name" json:"name"`
	Locator      string     `yaml:"locator" json:"locator"`
	Kind         SourceKind `yaml:"kind" json:"kind"`
	System       string     `yaml:"system" json:"system"`
	Instruction  string     `yaml:"instruction" json:"instruction"`
	MaxAttempts  int        `yaml:"max_attempts" json:"max_attempts,omitempty"`
	ExpectedKeys []string   `yaml:"expected_keys" json:"expected_keys,omitempty"`
}
