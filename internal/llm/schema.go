package llm

// BuildRecordJSONSchema returns the JSON-Schema (draft 2020-12 subset) for a
// single candidate record, as a generic map. Sent to the model as a structured
// output constraint and used locally to validate the response.
func BuildRecordJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"brand":             map[string]any{"type": "string", "minLength": 1},
			"name":              map[string]any{"type": "string", "minLength": 1},
			"quantity":          numberOrString(),
			"purchase_price":    numberOrString(),
			"purchase_date":     map[string]any{"type": "string"},
			"purchase_location": map[string]any{"type": "string"},
			"notes":             map[string]any{"type": "string"},
			"length":            numberOrString(),
			"ring_gauge":        numberOrString(),
			"country":           map[string]any{"type": "string"},
			"wrapper":           map[string]any{"type": "string"},
			"binder":            map[string]any{"type": "string"},
			"filler":            map[string]any{"type": "string"},
			"color":             map[string]any{"type": "string"},
			"strength":          map[string]any{"type": "string"},
		},
		"required": []string{"brand", "name"},
	}
}

// BuildRecordArrayJSONSchema wraps the record schema for the text path, which
// may return several records from one transcript.
func BuildRecordArrayJSONSchema() map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    BuildRecordJSONSchema(),
	}
}

func numberOrString() map[string]any {
	return map[string]any{"type": []string{"number", "string"}}
}
