package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilianammmatos/incremental-graphql/graphql/parser"
	"github.com/lilianammmatos/incremental-graphql/graphql/schema"
	"github.com/lilianammmatos/incremental-graphql/graphql/validator"
)

func newIncrementalTestSchema(t *testing.T) *schema.Schema {
	itemType := &schema.ObjectType{Name: "Item"}
	itemType.Fields = map[string]*schema.FieldDefinition{
		"id": {
			Type: schema.NewNonNullType(schema.IntType),
			Resolve: func(ctx schema.FieldContext) (interface{}, error) {
				return ctx.Object.(int), nil
			},
		},
	}

	queryType := &schema.ObjectType{Name: "Query"}
	queryType.Fields = map[string]*schema.FieldDefinition{
		"id": {
			Type: schema.NewNonNullType(schema.IntType),
			Resolve: func(schema.FieldContext) (interface{}, error) {
				return 1, nil
			},
		},
		"name": {
			Type: schema.StringType,
			Resolve: func(schema.FieldContext) (interface{}, error) {
				return "root", nil
			},
		},
		"items": {
			Type: schema.NewListType(itemType),
			Resolve: func(schema.FieldContext) (interface{}, error) {
				return []interface{}{1, 2, 3}, nil
			},
		},
		"erroringItems": {
			Type: schema.NewListType(itemType),
			Resolve: func(schema.FieldContext) (interface{}, error) {
				return nil, fmt.Errorf("boom")
			},
		},
	}

	s, err := schema.New(&schema.SchemaDefinition{
		Query: queryType,
		Directives: map[string]*schema.DirectiveDefinition{
			"defer":  schema.DeferDirective,
			"stream": schema.StreamDirective,
		},
		Features: schema.NewFeatureSet(schema.DeferFeature, schema.StreamFeature),
	})
	require.NoError(t, err)
	return s
}

func executeIncrementalTestRequest(t *testing.T, s *schema.Schema, query string) (*OrderedMap, []*Error, *IncrementalSequence) {
	doc, parseErrs := parser.ParseDocument([]byte(query))
	require.Empty(t, parseErrs)
	require.Empty(t, validator.ValidateDocument(doc, s, schema.NewFeatureSet(schema.DeferFeature, schema.StreamFeature)))

	return ExecuteRequestIncremental(context.Background(), &Request{
		Document: doc,
		Schema:   s,
	})
}

func TestExecuteRequestIncrementalNoDirectives(t *testing.T) {
	s := newIncrementalTestSchema(t)
	data, errs, seq := executeIncrementalTestRequest(t, s, `{name}`)
	assert.Empty(t, errs)
	assert.Nil(t, seq)
	require.NotNil(t, data)
	assert.Equal(t, 1, data.Len())
}

func TestExecuteRequestIncrementalDefer(t *testing.T) {
	s := newIncrementalTestSchema(t)
	data, errs, seq := executeIncrementalTestRequest(t, s, `{
		id
		... @defer(label: "slow") {
			name
			id
		}
	}`)
	assert.Empty(t, errs)
	require.NotNil(t, data)
	// The deferred fragment's fields aren't present in the initial response.
	_, ok := data.Get("name")
	assert.False(t, ok)
	idValue, ok := data.Get("id")
	require.True(t, ok)
	assert.Equal(t, 1, idValue)

	require.NotNil(t, seq)
	patch := seq.Next()
	require.NotNil(t, patch)
	assert.False(t, patch.HasNext)
	assert.Equal(t, "slow", patch.Label)
	require.NotNil(t, patch.Data)
	m, ok := patch.Data.(*OrderedMap)
	require.True(t, ok)
	nameValue, ok := m.Get("name")
	require.True(t, ok)
	assert.Equal(t, "root", nameValue)
	idPatchValue, ok := m.Get("id")
	require.True(t, ok)
	assert.Equal(t, 1, idPatchValue)
}

func TestExecuteRequestIncrementalStream(t *testing.T) {
	s := newIncrementalTestSchema(t)
	data, errs, seq := executeIncrementalTestRequest(t, s, `{
		items @stream(initialCount: 2) {id}
	}`)
	assert.Empty(t, errs)
	require.NotNil(t, data)
	itemsValue, ok := data.Get("items")
	require.True(t, ok)
	initial, ok := itemsValue.([]interface{})
	require.True(t, ok)
	assert.Len(t, initial, 2)

	require.NotNil(t, seq)

	patch := seq.Next()
	require.NotNil(t, patch)
	assert.True(t, patch.HasNext)
	assert.Equal(t, []interface{}{"items", 2}, patch.Path)
	require.NotNil(t, patch.Data)
	m, ok := patch.Data.(*OrderedMap)
	require.True(t, ok)
	idValue, ok := m.Get("id")
	require.True(t, ok)
	assert.Equal(t, 3, idValue)

	terminator := seq.Next()
	require.NotNil(t, terminator)
	assert.False(t, terminator.HasNext)
	assert.Nil(t, terminator.Data)
}

func TestExecuteRequestIncrementalStreamedElementErrorStaysInItsPatch(t *testing.T) {
	itemType := &schema.ObjectType{Name: "Item"}
	itemType.Fields = map[string]*schema.FieldDefinition{
		"id": {
			Type: schema.NewNonNullType(schema.IntType),
			Resolve: func(ctx schema.FieldContext) (interface{}, error) {
				n := ctx.Object.(int)
				if n == 2 {
					return nil, fmt.Errorf("bad element")
				}
				return n, nil
			},
		},
	}
	queryType := &schema.ObjectType{Name: "Query"}
	queryType.Fields = map[string]*schema.FieldDefinition{
		"items": {
			Type: schema.NewListType(itemType),
			Resolve: func(schema.FieldContext) (interface{}, error) {
				return []interface{}{0, 1, 2, 3}, nil
			},
		},
	}
	s, err := schema.New(&schema.SchemaDefinition{
		Query: queryType,
		Directives: map[string]*schema.DirectiveDefinition{
			"stream": schema.StreamDirective,
		},
		Features: schema.NewFeatureSet(schema.StreamFeature),
	})
	require.NoError(t, err)

	doc, parseErrs := parser.ParseDocument([]byte(`{items @stream(initialCount: 1) {id}}`))
	require.Empty(t, parseErrs)
	require.Empty(t, validator.ValidateDocument(doc, s, schema.NewFeatureSet(schema.StreamFeature)))

	_, errs, seq := ExecuteRequestIncremental(context.Background(), &Request{
		Document: doc,
		Schema:   s,
	})
	assert.Empty(t, errs)
	require.NotNil(t, seq)

	first := seq.Next()
	require.NotNil(t, first)
	assert.True(t, first.HasNext)
	assert.Empty(t, first.Errors)

	failed := seq.Next()
	require.NotNil(t, failed)
	require.Len(t, failed.Errors, 1)
	assert.Nil(t, failed.Data)

	rest := seq.Next()
	require.NotNil(t, rest)
	assert.True(t, rest.HasNext)
	assert.Empty(t, rest.Errors)
	assert.Equal(t, []interface{}{"items", 3}, rest.Path)

	terminator := seq.Next()
	require.NotNil(t, terminator)
	assert.False(t, terminator.HasNext)
}

func TestExecuteRequestIncrementalStreamConflictIsFatal(t *testing.T) {
	s := newIncrementalTestSchema(t)
	doc, parseErrs := parser.ParseDocument([]byte(`{
		items @stream(initialCount: 1) {id}
		items @stream(initialCount: 2) {id}
	}`))
	require.Empty(t, parseErrs)
	require.Empty(t, validator.ValidateDocument(doc, s, schema.NewFeatureSet(schema.DeferFeature, schema.StreamFeature)))

	_, errs, seq := ExecuteRequestIncremental(context.Background(), &Request{
		Document: doc,
		Schema:   s,
	})
	assert.Nil(t, seq)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "conflict")
}
