package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed form.schema.json
var formSchema []byte

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

// FormSchema returns the raw JSON Schema of a persisted form.
func FormSchema() []byte {
	return formSchema
}

func load() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(formSchema))
	})
	return compiled, compileErr
}

// ValidateDocument checks a raw JSON form document against the form schema.
// It returns an *AggregateError listing every failure.
func ValidateDocument(data []byte) error {
	s, err := load()
	if err != nil {
		return fmt.Errorf("schema: compile: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &AggregateError{Errors: []error{&ValidationError{Key: "(root)", Reason: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	aggr := &AggregateError{}
	for _, desc := range result.Errors() {
		aggr.Errors = append(aggr.Errors, &ValidationError{
			Key:    desc.Field(),
			Reason: desc.Description(),
			Value:  desc.Value(),
		})
	}
	return aggr
}

// Decode validates the document shape, decodes it and runs the structural
// form checks.
func Decode(data []byte) (*domain.Form, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var form domain.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if form.Viewport == (domain.Viewport{}) {
		form.Viewport = domain.DefaultViewport
	}
	if err := domain.Validate(&form); err != nil {
		return nil, err
	}
	return &form, nil
}

// Lint reports every defect of a JSON or YAML form document without
// stopping at the first failing stage.
func Lint(doc []byte) []domain.Issue {
	data := doc
	if !json.Valid(doc) {
		converted, err := FromYAML(doc)
		if err != nil {
			return []domain.Issue{{Code: domain.IssueUnknownVariant, Message: err.Error()}}
		}
		data = converted
	}
	if err := ValidateDocument(data); err != nil {
		return Issues(err)
	}
	var form domain.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return []domain.Issue{{Code: domain.IssueUnknownVariant, Message: err.Error()}}
	}
	return domain.Check(&form)
}

// FromYAML converts a YAML form document to JSON.
func FromYAML(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid yaml: %v", domain.ErrValidation, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml is not representable as json: %v", domain.ErrValidation, err)
	}
	return out, nil
}

// ToYAML renders a form as a YAML document with the same shape and key order
// as its JSON encoding.
func ToYAML(form *domain.Form) ([]byte, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

// blockStyle drops the flow and quoting styles the JSON input carried.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
