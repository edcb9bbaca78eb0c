package validator

import (
	"fmt"

	"github.com/lilianammmatos/incremental-graphql/graphql/ast"
	"github.com/lilianammmatos/incremental-graphql/graphql/schema"
)

// Location identifies the line and column of a token referenced by a validation error.
type Location struct {
	Line   int
	Column int
}

type Error struct {
	Message   string
	Locations []Location

	// If a validator is unable to perform its job due to an error unrelated to its purpose, it will
	// emit a secondary error. Secondary errors are always errors that should be caught by other
	// validators, so if there are any primary errors, secondary errors are discarded as they should
	// all be duplicates. If a secondary error makes it out of validation, there's probably a
	// mistake in one of the validators.
	isSecondary bool
}

func (err *Error) Error() string {
	return err.Message
}

func newError(node ast.Node, message string, args ...interface{}) *Error {
	return newErrorWithNodes([]ast.Node{node}, message, args...)
}

func newSecondaryError(node ast.Node, message string, args ...interface{}) *Error {
	err := newErrorWithNodes([]ast.Node{node}, message, args...)
	err.isSecondary = true
	return err
}

// newErrorWithNodes builds an error whose locations point at the tokens of every given node.
func newErrorWithNodes(nodes []ast.Node, message string, args ...interface{}) *Error {
	locations := make([]Location, 0, len(nodes))
	for _, node := range nodes {
		if node == nil {
			continue
		}
		pos := node.Position()
		locations = append(locations, Location{Line: pos.Line, Column: pos.Column})
	}
	return &Error{
		Message:   fmt.Sprintf(message, args...),
		Locations: locations,
	}
}

// namedType returns the schema's named type with the given name, treating types whose required
// features aren't a subset of features as if they didn't exist.
func namedType(s *schema.Schema, features schema.FeatureSet, name string) schema.NamedType {
	t := s.NamedType(name)
	switch t := t.(type) {
	case *schema.ObjectType:
		if !t.RequiredFeatures.IsSubsetOf(features) {
			return nil
		}
	case *schema.InterfaceType:
		if !t.RequiredFeatures.IsSubsetOf(features) {
			return nil
		}
	case *schema.UnionType:
		if !t.RequiredFeatures.IsSubsetOf(features) {
			return nil
		}
	}
	return t
}

// Rule defines a pluggable validation rule that runs in addition to the standard validator checks,
// e.g. ValidateCost.
type Rule func(doc *ast.Document, s *schema.Schema, typeInfo *TypeInfo) []*Error

func ValidateDocument(doc *ast.Document, s *schema.Schema, features schema.FeatureSet, additionalRules ...Rule) []*Error {
	typeInfo := NewTypeInfo(doc, s)
	var errs []*Error
	for _, f := range []func(*ast.Document, *schema.Schema, schema.FeatureSet, *TypeInfo) []*Error{
		validateDocument,
		validateOperations,
		validateFields,
		validateArguments,
		validateFragments,
		validateValues,
		validateDirectives,
		validateVariables,
	} {
		errs = append(errs, f(doc, s, features, typeInfo)...)
	}
	for _, rule := range additionalRules {
		errs = append(errs, rule(doc, s, typeInfo)...)
	}
	var primary []*Error
	for _, err := range errs {
		if !err.isSecondary {
			primary = append(primary, err)
		}
	}
	if len(primary) > 0 {
		return primary
	}
	return errs
}
