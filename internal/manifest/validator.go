package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	schemaResourceNameConstant        = "dugger.schema.json"
	addSchemaResourceErrorTemplate    = "add manifest schema resource: %w"
	compileSchemaErrorTemplate        = "compile manifest schema: %w"
	marshalForValidationErrorTemplate = "marshal manifest for validation: %w"
	decodeForValidationErrorTemplate  = "decode manifest for validation: %w"
	validationFailedTemplateConstant  = "manifest validation failed:\n%s"
	validationFailedWrapTemplate      = "manifest validation failed: %w"
	validationIssueTemplateConstant   = "- %s: %s"
)

//go:embed dugger.schema.json
var embeddedSchemaDocument []byte

// SchemaValidator checks decoded manifests against the embedded JSON Schema.
type SchemaValidator struct {
	compiledSchema *jsonschema.Schema
}

// NewSchemaValidator compiles the embedded manifest schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	schemaCompiler := jsonschema.NewCompiler()
	if addResourceError := schemaCompiler.AddResource(schemaResourceNameConstant, strings.NewReader(string(embeddedSchemaDocument))); addResourceError != nil {
		return nil, fmt.Errorf(addSchemaResourceErrorTemplate, addResourceError)
	}

	compiledSchema, compileError := schemaCompiler.Compile(schemaResourceNameConstant)
	if compileError != nil {
		return nil, fmt.Errorf(compileSchemaErrorTemplate, compileError)
	}

	return &SchemaValidator{compiledSchema: compiledSchema}, nil
}

// Validate checks the manifest against the schema. The manifest is marshaled
// through JSON so the schema sees plain objects rather than Go types.
func (validatorInstance *SchemaValidator) Validate(projectManifest Manifest) error {
	encodedManifest, marshalError := json.Marshal(projectManifest)
	if marshalError != nil {
		return fmt.Errorf(marshalForValidationErrorTemplate, marshalError)
	}

	var manifestDocument any
	if decodeError := json.Unmarshal(encodedManifest, &manifestDocument); decodeError != nil {
		return fmt.Errorf(decodeForValidationErrorTemplate, decodeError)
	}

	if validationError := validatorInstance.compiledSchema.Validate(manifestDocument); validationError != nil {
		if schemaValidationError, conversionSucceeded := validationError.(*jsonschema.ValidationError); conversionSucceeded {
			var issueMessages []string
			collectValidationIssues(schemaValidationError, &issueMessages)
			return fmt.Errorf(validationFailedTemplateConstant, strings.Join(issueMessages, "\n"))
		}
		return fmt.Errorf(validationFailedWrapTemplate, validationError)
	}

	return nil
}

func collectValidationIssues(validationError *jsonschema.ValidationError, issueMessages *[]string) {
	if len(validationError.InstanceLocation) > 0 {
		*issueMessages = append(*issueMessages, fmt.Sprintf(validationIssueTemplateConstant, validationError.InstanceLocation, validationError.Message))
	}
	for _, causeError := range validationError.Causes {
		collectValidationIssues(causeError, issueMessages)
	}
}
