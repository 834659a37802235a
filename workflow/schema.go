package workflow

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Ariffin97/portal-mpa-sub001/apperrors"
	"github.com/Ariffin97/portal-mpa-sub001/models"
)

const eventSchema = `{
  "type": "object",
  "required": ["organiserName", "contactPerson", "contactEmail", "eventTitle", "venue", "state", "startDate", "endDate", "dataConsent", "termsConsent"],
  "properties": {
    "organiserName": {"type": "string", "pattern": "\\S"},
    "contactPerson": {"type": "string", "pattern": "\\S"},
    "contactEmail":  {"type": "string", "format": "email"},
    "contactPhone":  {"type": "string", "pattern": "^\\+?[0-9 -]{7,20}$"},
    "eventTitle":    {"type": "string", "pattern": "\\S", "maxLength": 200},
    "venue":         {"type": "string", "pattern": "\\S"},
    "state":         {"type": "string", "pattern": "\\S"},
    "categories":    {"type": "array", "items": {"type": "string"}},
    "expectedParticipants": {"type": "integer", "minimum": 0},
    "dataConsent":   {"enum": [true]},
    "termsConsent":  {"enum": [true]}
  }
}`

func compileEventSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(eventSchema))
	if err != nil {
		return nil, fmt.Errorf("compile event schema: %w", err)
	}
	return schema, nil
}

func validateEvent(schema *gojsonschema.Schema, event models.EventDetails) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(event))
	if err != nil {
		return apperrors.Validation("event", fmt.Sprintf("unreadable payload: %v", err))
	}

	fields := make(map[string]string)
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		if _, seen := fields[field]; !seen {
			fields[field] = desc.Description()
		}
	}
	if event.StartDate.IsZero() {
		fields["startDate"] = "start date is required"
	}
	if event.EndDate.IsZero() {
		fields["endDate"] = "end date is required"
	} else if event.EndDate.Before(event.StartDate) {
		fields["endDate"] = "end date must not be before start date"
	}

	if len(fields) > 0 {
		return apperrors.ValidationFields("invalid application details", fields)
	}
	return nil
}
