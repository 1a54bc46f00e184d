package ml

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	SchemaSimilarity     = "similarity"
	SchemaCollaborative  = "collaborative"
	SchemaEmbeddingModel = "embedding_model"
)

// SchemaValidator checks artifact documents before they are decoded, so that
// a file missing a required field fails at startup with a readable message.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator loads the embedded artifact schemas.
func NewSchemaValidator() (*SchemaValidator, error) {
	sv := &SchemaValidator{
		schemas: make(map[string]*gojsonschema.Schema),
	}
	if err := sv.loadFromFS(schemaFS, "schemas"); err != nil {
		return nil, err
	}
	return sv, nil
}

func (sv *SchemaValidator) loadFromFS(fsys fs.FS, schemaDir string) error {
	schemaFiles := map[string]string{
		SchemaSimilarity:     "similarity.json",
		SchemaCollaborative:  "collaborative.json",
		SchemaEmbeddingModel: "embedding_model.json",
	}

	for name, filename := range schemaFiles {
		schemaPath := filepath.ToSlash(filepath.Join(schemaDir, filename))

		schemaBytes, err := fs.ReadFile(fsys, schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file %s: %w", schemaPath, err)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
		if err != nil {
			return fmt.Errorf("failed to load schema %s: %w", name, err)
		}

		sv.schemas[name] = schema
	}

	return nil
}

// Validate checks a raw JSON document against the named schema.
func (sv *SchemaValidator) Validate(schemaName string, document []byte) error {
	schema, exists := sv.schemas[schemaName]
	if !exists {
		return fmt.Errorf("schema %q not found", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("%s: invalid JSON: %w", schemaName, err)
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return &SchemaError{Schema: schemaName, Problems: messages}
}

// SchemaError lists every schema violation found in an artifact.
type SchemaError struct {
	Schema   string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s artifact failed validation: %s", e.Schema, strings.Join(e.Problems, "; "))
}
