package schema

import (
	"fmt"
	"strings"
)

type DirectiveLocation string

const (
	DirectiveLocationQuery              = "QUERY"
	DirectiveLocationMutation           = "MUTATION"
	DirectiveLocationSubscription       = "SUBSCRIPTION"
	DirectiveLocationField              = "FIELD"
	DirectiveLocationFragmentDefinition = "FRAGMENT_DEFINITION"
	DirectiveLocationFragmentSpread     = "FRAGMENT_SPREAD"
	DirectiveLocationInlineFragment     = "INLINE_FRAGMENT"

	DirectiveLocationSchema               = "SCHEMA"
	DirectiveLocationScalar               = "SCALAR"
	DirectiveLocationObject               = "OBJECT"
	DirectiveLocationFieldDefinition      = "FIELD_DEFINITION"
	DirectiveLocationArgumentDefinition   = "ARGUMENT_DEFINITION"
	DirectiveLocationInterface            = "INTERFACE"
	DirectiveLocationUnion                = "UNION"
	DirectiveLocationEnum                 = "ENUM"
	DirectiveLocationEnumValue            = "ENUM_VALUE"
	DirectiveLocationInputObject          = "INPUT_OBJECT"
	DirectiveLocationInputFieldDefinition = "INPUT_FIELD_DEFINITION"
)

type DirectiveDefinition struct {
	Description string
	Arguments   map[string]*InputValueDefinition
	Locations   []DirectiveLocation

	// If non-nil, this function will be invoked during field collection for each selection with
	// this directive present. If the function returns false, the selection will be skipped.
	FieldCollectionFilter func(arguments map[string]interface{}) bool

	// IncrementalDeliveryKind identifies directives that the field collector treats specially
	// (registering deferred work or streamed list tails with the dispatcher) rather than via
	// FieldCollectionFilter alone. Empty for ordinary directives.
	IncrementalDeliveryKind IncrementalDeliveryKind

	// RequiredFeatures lists the features that must be enabled for this directive to be
	// recognized. The validator checks them against the feature set passed to ValidateDocument
	// for the request, not the schema's Features; a document referencing the directive without
	// all of these features is rejected as an unknown directive.
	RequiredFeatures FeatureSet
}

// IncrementalDeliveryKind distinguishes @defer from @stream for components (the field collector,
// the conflict validator) that need to treat them differently from ordinary directives.
type IncrementalDeliveryKind int

const (
	// NotIncrementalDelivery marks directives with no special incremental-delivery handling.
	NotIncrementalDelivery IncrementalDeliveryKind = iota
	// DeferIncrementalDelivery marks the @defer directive.
	DeferIncrementalDelivery
	// StreamIncrementalDelivery marks the @stream directive.
	StreamIncrementalDelivery
)

func referencesDirective(node interface{}, directive *DirectiveDefinition) bool {
	visited := map[interface{}]struct{}{}
	foundReference := false

	Inspect(node, func(node interface{}) bool {
		if _, ok := visited[node]; ok {
			return false
		}
		visited[node] = struct{}{}
		if node == directive {
			foundReference = true
		}
		return !foundReference
	})

	return foundReference
}

func (d *DirectiveDefinition) shallowValidate() error {
	for name, arg := range d.Arguments {
		if !isName(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("illegal directive argument name: %v", name)
		} else if referencesDirective(arg, d) {
			return fmt.Errorf("directive is self-referencing via %v argument", name)
		}
	}
	return nil
}

type Directive struct {
	Definition *DirectiveDefinition
	Arguments  []*Argument
}

// DeferFeature gates the @defer directive. The request's feature set passed to validation must
// include it for @defer to be recognized; otherwise it's rejected as an unknown directive.
const DeferFeature = "defer"

// StreamFeature gates the @stream directive, same as DeferFeature.
const StreamFeature = "stream"

// DeferDirective implements @defer(if: Boolean = true, label: String). The field collector
// special-cases it directly (see IncrementalDeliveryKind) rather than relying on
// FieldCollectionFilter, since deferred selections aren't dropped -- they're registered with the
// dispatcher instead.
var DeferDirective = &DirectiveDefinition{
	Description: "The @defer directive may be provided for fragment spreads and inline fragments to inform the executor to delay the delivery of the current fragment's data.",
	Arguments: map[string]*InputValueDefinition{
		"if": {
			Type:         NewNonNullType(BooleanType),
			DefaultValue: true,
		},
		"label": {
			Type: StringType,
		},
	},
	Locations:               []DirectiveLocation{DirectiveLocationFragmentSpread, DirectiveLocationInlineFragment},
	IncrementalDeliveryKind: DeferIncrementalDelivery,
	RequiredFeatures:        NewFeatureSet(DeferFeature),
}

// StreamDirective implements @stream(if: Boolean = true, initialCount: Int = 0, label: String). It
// may only be applied to list fields. Like @defer, the field collector special-cases it.
var StreamDirective = &DirectiveDefinition{
	Description: "The @stream directive may be provided for list fields to inform the executor to stream list elements after the initialCount has been delivered in the initial response.",
	Arguments: map[string]*InputValueDefinition{
		"if": {
			Type:         NewNonNullType(BooleanType),
			DefaultValue: true,
		},
		"initialCount": {
			Type:         IntType,
			DefaultValue: 0,
		},
		"label": {
			Type: StringType,
		},
	},
	Locations:               []DirectiveLocation{DirectiveLocationField},
	IncrementalDeliveryKind: StreamIncrementalDelivery,
	RequiredFeatures:        NewFeatureSet(StreamFeature),
}
