package apifu

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lilianammmatos/incremental-graphql/graphql"
)

// Config defines the schema and other parameters for an API.
type Config struct {
	Logger logrus.FieldLogger

	// Execute is invoked to execute a GraphQL request. If not given, this is simply
	// graphql.ExecuteIncremental. You may wish to provide this to perform request logging or
	// pre/post-processing.
	Execute func(*graphql.Request) (*graphql.Response, *graphql.IncrementalSequence)

	// If given, this function determines the set of optional features (e.g. "defer" and "stream")
	// enabled for a given request context.
	Features func(ctx context.Context) graphql.FeatureSet

	// DefaultFieldCost holds a cost for fields that do not define their own Cost function. NewAPI
	// and ServeGraphQL do not read it; requests are served without cost validation.
	DefaultFieldCost graphql.FieldCost

	initOnce        sync.Once
	query           *graphql.ObjectType
	mutation        *graphql.ObjectType
	additionalTypes []graphql.NamedType
}

func (cfg *Config) init() {
	cfg.initOnce.Do(func() {
		cfg.query = &graphql.ObjectType{
			Name:   "Query",
			Fields: map[string]*graphql.FieldDefinition{},
		}
	})
}

func (cfg *Config) graphqlSchema() (*graphql.Schema, error) {
	cfg.init()
	return graphql.NewSchema(&graphql.SchemaDefinition{
		Query:           cfg.query,
		Mutation:        cfg.mutation,
		AdditionalTypes: cfg.additionalTypes,
		Directives: map[string]*graphql.DirectiveDefinition{
			"include": graphql.IncludeDirective,
			"skip":    graphql.SkipDirective,
			"defer":   graphql.DeferDirective,
			"stream":  graphql.StreamDirective,
		},
	})
}

// AddNamedType adds a named type to the schema. This is generally only required for interface
// implementations that aren't explicitly referenced elsewhere in the schema.
func (cfg *Config) AddNamedType(t graphql.NamedType) {
	cfg.init()
	cfg.additionalTypes = append(cfg.additionalTypes, t)
}

// MutationType returns the root mutation type.
func (cfg *Config) MutationType() *graphql.ObjectType {
	cfg.init()

	if cfg.mutation == nil {
		cfg.mutation = &graphql.ObjectType{
			Name:   "Mutation",
			Fields: map[string]*graphql.FieldDefinition{},
		}
	}

	return cfg.mutation
}

// AddMutation adds a mutation to your schema.
func (cfg *Config) AddMutation(name string, def *graphql.FieldDefinition) {
	t := cfg.MutationType()

	if _, ok := t.Fields[name]; ok {
		panic("a mutation with that name already exists")
	}

	t.Fields[name] = def
}

// QueryType returns the root query type.
func (cfg *Config) QueryType() *graphql.ObjectType {
	cfg.init()
	return cfg.query
}

// AddQueryField adds a field to your schema's query object.
func (cfg *Config) AddQueryField(name string, def *graphql.FieldDefinition) {
	t := cfg.QueryType()

	if _, ok := t.Fields[name]; ok {
		panic("a field with that name already exists")
	}

	t.Fields[name] = def
}
