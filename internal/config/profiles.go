package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

const profileSchema = `{
  "type": "object",
  "required": ["systems"],
  "properties": {
    "systems": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["screen_detection"],
        "properties": {
          "screen_detection": {
            "type": "object",
            "required": ["min_thresh", "max_thresh", "width_def", "height_def", "dim_tolerance"],
            "properties": {
              "min_thresh":    {"type": "number", "minimum": 0},
              "max_thresh":    {"type": "number", "minimum": 0},
              "width_def":     {"type": "number", "exclusiveMinimum": 0},
              "height_def":    {"type": "number", "exclusiveMinimum": 0},
              "dim_tolerance": {"type": "number", "minimum": 0, "exclusiveMaximum": 1}
            }
          }
        }
      }
    }
  }
}`

// Profiles maps a system identity to its display profile.
type Profiles map[string]models.DisplayProfile

// Profile returns the profile of system.
func (p Profiles) Profile(system string) (models.DisplayProfile, bool) {
	prof, ok := p[system]
	return prof, ok
}

// Systems lists the configured system identities in sorted order.
func (p Profiles) Systems() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type profileFile struct {
	Systems map[string]struct {
		ScreenDetection models.DisplayProfile `json:"screen_detection"`
	} `json:"systems"`
}

// LoadProfiles reads and validates a profile file. A missing or malformed
// file is a config error.
func LoadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("cannot read profile file %s", path), err)
	}
	return ParseProfiles(data)
}

// ParseProfiles validates data against the profile schema and decodes it.
func ParseProfiles(data []byte) (Profiles, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("profiles.json", strings.NewReader(profileSchema)); err != nil {
		return nil, apperrors.NewInternalError("add profile schema", err)
	}
	schema, err := compiler.Compile("profiles.json")
	if err != nil {
		return nil, apperrors.NewInternalError("compile profile schema", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, apperrors.NewConfigError("profile file is not valid JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, apperrors.NewConfigError("profile file does not match schema", err)
	}

	var pf profileFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, apperrors.NewConfigError("cannot decode profile file", err)
	}
	profiles := make(Profiles, len(pf.Systems))
	for id, sys := range pf.Systems {
		if err := sys.ScreenDetection.Validate(); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("system %s", id), err)
		}
		profiles[id] = sys.ScreenDetection
	}
	return profiles, nil
}
