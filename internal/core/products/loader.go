package products

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const rulesSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["lenders"],
  "properties": {
    "lenders": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name", "products"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "products": {
            "type": "object",
            "additionalProperties": false,
            "required": ["new_loan", "benefit_card", "portability", "portability_refinance"],
            "properties": {
              "new_loan": {"$ref": "#/$defs/rule"},
              "benefit_card": {"$ref": "#/$defs/rule"},
              "portability": {"$ref": "#/$defs/rule"},
              "portability_refinance": {"$ref": "#/$defs/rule"}
            }
          }
        }
      }
    }
  },
  "$defs": {
    "rule": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "min_age": {"type": "integer", "minimum": 0},
        "max_age": {"type": "integer", "minimum": 0},
        "min_margin": {"type": "number", "minimum": 0},
        "never": {"type": "boolean"}
      }
    }
  }
}`

var rulesSchema = jsonschema.MustCompileString("product_rules.schema.json", rulesSchemaJSON)

type tableFile struct {
	Lenders []Lender `json:"lenders"`
}

// Parse validates data against the rule-file schema and builds a Table.
func Parse(data []byte) (*Table, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	if err := rulesSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("rules do not match schema: %w", err)
	}
	var f tableFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return NewTable(f.Lenders)
}

// LoadFile reads a JSON rule file. An empty path returns the built-in table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}
