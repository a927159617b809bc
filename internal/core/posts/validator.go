package posts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultTextMinLength is the minimum post/comment length in graphemes
	DefaultTextMinLength = 1

	// DefaultTextMaxLength is the maximum post/comment length in graphemes
	DefaultTextMaxLength = 300
)

// postInputSchema describes the shape of create-post and add-comment bodies.
// Presence of text is a rule check so its message stays stable.
const postInputSchema = `{
	"type": "object",
	"properties": {
		"text":   {"type": "string"},
		"name":   {"type": "string"},
		"avatar": {"type": "string"}
	}
}`

type postValidator struct {
	schema  *gojsonschema.Schema
	minText int
	maxText int
}

// NewValidator creates a Validator enforcing text length in [minText, maxText] graphemes
func NewValidator(minText, maxText int) (Validator, error) {
	if minText < 1 {
		minText = 1
	}
	if maxText < minText {
		return nil, fmt.Errorf("invalid text bounds: max %d < min %d", maxText, minText)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(postInputSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile post input schema: %w", err)
	}

	return &postValidator{
		schema:  schema,
		minText: minText,
		maxText: maxText,
	}, nil
}

// ParsePostInput checks the body against the schema, decodes it and applies the rules
func (v *postValidator) ParsePostInput(body []byte) (PostInput, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return PostInput{}, ValidationErrors{"body": "Request body must be valid JSON"}
	}

	if !result.Valid() {
		errs := ValidationErrors{}
		for _, resultErr := range result.Errors() {
			field := resultErr.Field()
			if field == "(root)" {
				field = "body"
			}
			if _, exists := errs[field]; !exists {
				errs[field] = resultErr.Description()
			}
		}
		return PostInput{}, errs
	}

	var input PostInput
	if err := json.Unmarshal(body, &input); err != nil {
		return PostInput{}, ValidationErrors{"body": "Request body must be valid JSON"}
	}

	if err := v.ValidatePostInput(input); err != nil {
		return PostInput{}, err
	}
	return input, nil
}

// ValidatePostInput applies the text rules
func (v *postValidator) ValidatePostInput(input PostInput) error {
	errs := ValidationErrors{}

	if strings.TrimSpace(input.Text) == "" {
		errs["text"] = "Text field is required"
	} else if n := uniseg.GraphemeClusterCount(input.Text); n < v.minText || n > v.maxText {
		errs["text"] = fmt.Sprintf("Post must be between %d and %d characters", v.minText, v.maxText)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
