package apifu

import (
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/lilianammmatos/incremental-graphql/graphql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	var testCfg Config

	testCfg.AddQueryField("obj", &graphql.FieldDefinition{
		Type: &graphql.ObjectType{
			Name: "Object",
			Fields: map[string]*graphql.FieldDefinition{
				"int": NonNull(graphql.IntType, "Int"),
				"s0":  NonEmptyString("S0"),
				"s1":  NonEmptyString("S1"),
			},
		},
		Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
			return struct {
				Int int
				S0  string
				S1  string
			}{
				S1: "foo",
			}, nil
		},
	})

	api, err := NewAPI(&testCfg)
	require.NoError(t, err)

	resp := executeGraphQL(t, api, `{
		obj {
			int
			s0
			s1
		}
	}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"obj":{"int":0,"s0":null,"s1":"foo"}}}`, string(body))
}
