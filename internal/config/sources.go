package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

type sourcesFile struct {
	System       string            `yaml:"system"`
	Instructions map[string]string `yaml:"instructions"`
	Sources      []sourceEntry     `yaml:"sources"`
}

type sourceEntry struct {
	models.SourceSpec `yaml:",inline"`
	Prompt            string `yaml:"prompt"`
}

// LoadSources reads the source list. Order in the file is the batch order.
func LoadSources(path string) ([]models.SourceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("cannot read sources file %s", path), err)
	}
	return ParseSources(data)
}

// ParseSources decodes a sources document. A source may carry its own
// instruction or name a shared one through prompt. Sources without a
// system inherit the file-level one.
func ParseSources(data []byte) ([]models.SourceSpec, error) {
	var f sourcesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, apperrors.NewConfigError("cannot decode sources file", err)
	}
	if len(f.Sources) == 0 {
		return nil, apperrors.NewConfigError("sources file lists no sources", nil)
	}

	seen := make(map[string]bool, len(f.Sources))
	out := make([]models.SourceSpec, 0, len(f.Sources))
	for i, e := range f.Sources {
		spec := e.SourceSpec
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			return nil, apperrors.NewConfigError(fmt.Sprintf("source %d has no name", i), nil)
		}
		if seen[spec.Name] {
			return nil, apperrors.NewConfigError(fmt.Sprintf("duplicate source name %q", spec.Name), nil)
		}
		seen[spec.Name] = true

		kind, err := models.ParseSourceKind(string(spec.Kind))
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("source %q", spec.Name), err)
		}
		spec.Kind = kind

		if e.Prompt != "" {
			text, ok := f.Instructions[e.Prompt]
			if !ok {
				return nil, apperrors.NewConfigError(fmt.Sprintf("source %q names unknown prompt %q", spec.Name, e.Prompt), nil)
			}
			if spec.Instruction == "" {
				spec.Instruction = text
			}
		}
		spec.Instruction = strings.TrimSpace(spec.Instruction)
		if spec.Instruction == "" {
			return nil, apperrors.NewConfigError(fmt.Sprintf("source %q has no instruction", spec.Name), nil)
		}
		if spec.System == "" {
			spec.System = f.System
		}
		if spec.MaxAttempts < 0 {
			return nil, apperrors.NewConfigError(fmt.Sprintf("source %q: max_attempts must be >= 0", spec.Name), nil)
		}
		out = append(out, spec)
	}
	return out, nil
}
