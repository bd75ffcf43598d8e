// CUE schema validation code
package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// ValidateWithCue validates YAML configuration bytes against the embedded
// CUE schema. Unknown keys are rejected because #Config is closed.
func ValidateWithCue(yamlBytes []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if schemaVal.Err() != nil {
		return fmt.Errorf("compile CUE schema: %w", schemaVal.Err())
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Config"))

	file, err := cueyaml.Extract("config.yaml", yamlBytes)
	if err != nil {
		return fmt.Errorf("%w: cannot parse YAML config: %v", ErrConfiguration, err)
	}
	configVal := ctx.BuildFile(file)
	if configVal.Err() != nil {
		return fmt.Errorf("%w: cannot build YAML config: %v", ErrConfiguration, configVal.Err())
	}

	final := def.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: schema validation failed: %v", ErrConfiguration, err)
	}
	return nil
}
