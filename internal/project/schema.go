package project

import (
	"bytes"
	"fmt"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaID = "vxpack.schema.json"

// Schema returns the JSON schema of the descriptor, reflected from Project.
func Schema() ([]byte, error) {
	r := &invopop.Reflector{Anonymous: true}
	return r.Reflect(&Project{}).MarshalJSON()
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to reflect schema: %w", err)
	}
	unmarshaled, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaID, unmarshaled); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	s, err := compiler.Compile(schemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return s, nil
})

// Validate checks a JSON encoded descriptor against Schema.
func Validate(jsonData []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if err := s.Validate(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	return nil
}
