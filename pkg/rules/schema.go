package rules

// ruleMapSchema validates rule map files before they are bound to the
// registries. Condition names may carry a leading "!" negation marker;
// structural negation is resolved later, at build time.
const ruleMapSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "Rule map",
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"description": {"type": "string"},
			"function_name": {"type": "string", "minLength": 1},
			"options": {"type": "object"},
			"conditions": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"function_name": {"type": "string", "minLength": 1},
						"options": {"type": "object"}
					},
					"required": ["function_name", "options"],
					"additionalProperties": false
				}
			},
			"timeout": {"type": "integer", "minimum": 1},
			"exit_on_failure": {"type": "boolean"}
		},
		"required": ["function_name", "options", "conditions"],
		"additionalProperties": false
	}
}`

// ruleSequenceSchema validates rule sequence files.
const ruleSequenceSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "Rule sequence",
	"type": "array",
	"items": {"type": "string", "minLength": 1}
}`
