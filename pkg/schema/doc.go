// Package schema validates persisted form documents.
//
// A form is stored as a single JSON document. Before it is decoded into
// domain types the raw document is checked against the embedded JSON Schema,
// which reports shape problems (unknown variant tags, wrong field types,
// over-length prompts) with the path of the offending field. Decoded forms
// then go through domain.Validate for graph-level checks such as dangling
// references.
//
// Basic usage:
//
//	form, err := schema.Decode(data)
//	if errs := schema.ValidationErrors(err); errs != nil {
//	    // report every field error
//	}
//
// YAML documents are accepted by converting them first:
//
//	data, err := schema.FromYAML(yamlBytes)
package schema
