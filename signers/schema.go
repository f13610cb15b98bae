package signers

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// typedDataSchema validates the shape of a typed-data document before it
// is handed to an interactive agent. Agents reject malformed documents
// with opaque errors, so malformed requests are caught locally instead.
const typedDataSchema = `{
	"type": "object",
	"required": ["types", "primaryType", "domain", "message"],
	"properties": {
		"types": {
			"type": "object",
			"required": ["EIP712Domain"],
			"additionalProperties": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["name", "type"],
					"properties": {
						"name": {"type": "string", "minLength": 1},
						"type": {"type": "string", "minLength": 1}
					}
				}
			}
		},
		"primaryType": {"type": "string", "minLength": 1},
		"domain": {"type": "object"},
		"message": {"type": "object"}
	}
}`

var typedDataSchemaLoader = gojsonschema.NewStringLoader(typedDataSchema)

// validateDocument checks a serialized typed-data document against the
// structured-signing request schema.
func validateDocument(documentJSON []byte) error {
	result, err := gojsonschema.Validate(typedDataSchemaLoader, gojsonschema.NewBytesLoader(documentJSON))
	if err != nil {
		return fmt.Errorf("validating typed-data document: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("malformed typed-data document: %v", result.Errors())
	}
	return nil
}
