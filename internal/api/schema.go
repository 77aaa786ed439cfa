package api

import (
	"github.com/xeipuuv/gojsonschema"
)

// analyzeRequestSchema is the shape POST /analyze accepts. Section
// contents are left open because upstream producers vary their field names.
const analyzeRequestSchema = `{
  "type": "object",
  "required": ["merchantId", "sections"],
  "properties": {
    "reportId":   {"type": "string", "maxLength": 128},
    "merchantId": {"type": "string", "minLength": 1, "maxLength": 128},
    "storeName":  {"type": "string", "maxLength": 256},
    "sections": {
      "type": "object",
      "properties": {
        "store_overview":    {"type": "object"},
        "customer_analysis": {"type": "object"},
        "sales_analysis":    {"type": "object"},
        "delivery_analysis": {"type": "object"},
        "industry_analysis": {"type": "object"}
      }
    },
    "extra": {
      "type": "object",
      "additionalProperties": {"type": "number"}
    }
  }
}`

var analyzeSchema = mustSchema(analyzeRequestSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return s
}

// validateAnalyzeRequest returns one message per schema violation.
func validateAnalyzeRequest(body []byte) ([]string, error) {
	result, err := analyzeSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}
	return details, nil
}
